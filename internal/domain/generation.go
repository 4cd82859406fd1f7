// Package domain defines the canonical types shared across the generation
// pipeline: requests, provider contracts, job state, and canvas documents.
package domain

import (
	"context"
	"fmt"
	"math"
)

// MediaType identifies what kind of artifact a tool produces.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// AspectRatio is one of the fixed ratio strings accepted by every tool.
type AspectRatio string

const (
	RatioSquare        AspectRatio = "1:1"
	RatioLandscape     AspectRatio = "16:9"
	RatioPortrait      AspectRatio = "9:16"
	RatioClassic       AspectRatio = "4:3"
	RatioClassicTall   AspectRatio = "3:4"
	RatioCinemascope   AspectRatio = "21:9"
)

// SupportedRatios lists every ratio the request layer accepts, in a stable order.
var SupportedRatios = []AspectRatio{
	RatioSquare, RatioLandscape, RatioPortrait, RatioClassic, RatioClassicTall, RatioCinemascope,
}

// ParseAspectRatio validates a ratio string against the supported set.
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, r := range SupportedRatios {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio %q (supported: %v)", s, SupportedRatios)
}

// Dimensions computes a deterministic pixel size for the ratio, targeting
// roughly one megapixel with both sides a multiple of 64. Backends without a
// native ratio concept receive these values instead.
func (r AspectRatio) Dimensions() (width, height int) {
	var w, h int
	switch r {
	case RatioSquare:
		w, h = 1, 1
	case RatioLandscape:
		w, h = 16, 9
	case RatioPortrait:
		w, h = 9, 16
	case RatioClassic:
		w, h = 4, 3
	case RatioClassicTall:
		w, h = 3, 4
	case RatioCinemascope:
		w, h = 21, 9
	default:
		w, h = 1, 1
	}
	factor := math.Sqrt(1024 * 1024 / float64(w*h))
	width = int(factor*float64(w)/64) * 64
	height = int(factor*float64(h)/64) * 64
	return width, height
}

// GenerationParams carries the optional per-provider scalar parameters.
// The zero value of each field means "not requested".
type GenerationParams struct {
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale,omitempty"`
	Style          string  `json:"style,omitempty"`
	Duration       int     `json:"duration,omitempty"`
	Resolution     string  `json:"resolution,omitempty"`
	Mode           string  `json:"mode,omitempty"`
	StartImage     string  `json:"start_image,omitempty"`
	EndImage       string  `json:"end_image,omitempty"`
	AudioURL       string  `json:"audio_url,omitempty"`
	VideoURL       string  `json:"video_url,omitempty"`
	VoiceID        string  `json:"voice_id,omitempty"`
	VoiceSpeed     float64 `json:"voice_speed,omitempty"`
}

// GenerationRequest is the uniform request shape submitted by callers.
// It is immutable once submitted.
type GenerationRequest struct {
	Prompt      string           `json:"prompt"`
	AspectRatio AspectRatio      `json:"aspect_ratio"`
	InputImages []string         `json:"input_images,omitempty"`
	NumOutputs  int              `json:"num_outputs,omitempty"`
	Params      GenerationParams `json:"params"`
}

// Count returns the requested output count, defaulting to one.
func (r GenerationRequest) Count() int {
	if r.NumOutputs < 1 {
		return 1
	}
	return r.NumOutputs
}

// GenerationCall is the per-unit invocation handed to a provider after the
// capability layer has shaped it: the prompt may carry folded parameters,
// unsupported params are cleared, and CallID is the synthetic identifier for
// enveloped tools.
type GenerationCall struct {
	Prompt      string
	Model       string
	AspectRatio AspectRatio
	InputImages []string
	NumOutputs  int
	Params      GenerationParams
	CallID      string
}

// GenerationResult is one produced artifact, ready for canvas placement.
type GenerationResult struct {
	URL      string    `json:"url"`
	MIMEType string    `json:"mime_type"`
	Media    MediaType `json:"media"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Duration int       `json:"duration,omitempty"`
}

// Provider is the single contract every generation backend implements.
// Synchronous backends return after one round trip; asynchronous backends
// submit work and drive a poller internally before returning.
type Provider interface {
	Name() string
	Generate(ctx context.Context, call *GenerationCall) (ToolOutput, error)
}
