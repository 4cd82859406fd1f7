// Package capability shapes a uniform generation request into the concrete
// calls a specific tool can accept.
//
// Tools differ in which optional parameters they understand. Rather than
// probing schemas at dispatch time, each tool's capability set is declared
// statically at registration and consulted here. Parameters a tool cannot
// take are either folded into the prompt text (when meaning survives the
// folding) or dropped with a record of the drop, so a request never fails
// just because a backend is less expressive than the request shape.
package capability

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/artboardhq/artboard/internal/domain"
)

// Plan is the shaped dispatch for one request against one tool. Calls are
// issued in order; their results concatenate into the request's output set.
type Plan struct {
	Calls []*domain.GenerationCall
	// Folded lists parameters whose intent was rewritten into the prompt.
	Folded []domain.Capability
	// Dropped lists parameters the tool cannot take and that have no
	// meaningful textual fold.
	Dropped []domain.Capability
}

// Shape builds the dispatch plan for req against tool.
//
// Batching: a tool that accepts a native output count gets a single call
// carrying the full count; otherwise the plan fans out into count sequential
// single-output calls.
func Shape(tool domain.ToolDescriptor, req domain.GenerationRequest) *Plan {
	plan := &Plan{}

	prompt := req.Prompt
	params := req.Params

	if params.NegativePrompt != "" && !tool.Caps.Has(domain.CapNegativePrompt) {
		prompt = foldNegative(prompt, params.NegativePrompt)
		params.NegativePrompt = ""
		plan.Folded = append(plan.Folded, domain.CapNegativePrompt)
	}
	if params.Style != "" && !tool.Caps.Has(domain.CapStyle) {
		prompt = foldStyle(prompt, params.Style)
		params.Style = ""
		plan.Folded = append(plan.Folded, domain.CapStyle)
	}
	if params.GuidanceScale != 0 && !tool.Caps.Has(domain.CapGuidanceScale) {
		params.GuidanceScale = 0
		plan.Dropped = append(plan.Dropped, domain.CapGuidanceScale)
	}
	if params.Duration != 0 && !tool.Caps.Has(domain.CapDuration) {
		params.Duration = 0
		plan.Dropped = append(plan.Dropped, domain.CapDuration)
	}
	if params.Resolution != "" && !tool.Caps.Has(domain.CapResolution) {
		params.Resolution = ""
		plan.Dropped = append(plan.Dropped, domain.CapResolution)
	}
	if params.Mode != "" && !tool.Caps.Has(domain.CapMode) {
		params.Mode = ""
		plan.Dropped = append(plan.Dropped, domain.CapMode)
	}
	if params.StartImage != "" && !tool.Caps.Has(domain.CapStartImage) {
		params.StartImage = ""
		plan.Dropped = append(plan.Dropped, domain.CapStartImage)
	}
	if params.EndImage != "" && !tool.Caps.Has(domain.CapEndImage) {
		params.EndImage = ""
		plan.Dropped = append(plan.Dropped, domain.CapEndImage)
	}
	if params.AudioURL != "" && !tool.Caps.Has(domain.CapAudioRef) {
		params.AudioURL = ""
		plan.Dropped = append(plan.Dropped, domain.CapAudioRef)
	}
	if params.VideoURL != "" && !tool.Caps.Has(domain.CapVideoRef) {
		params.VideoURL = ""
		plan.Dropped = append(plan.Dropped, domain.CapVideoRef)
	}
	if (params.VoiceID != "" || params.VoiceSpeed != 0) && !tool.Caps.Has(domain.CapVoice) {
		params.VoiceID = ""
		params.VoiceSpeed = 0
		plan.Dropped = append(plan.Dropped, domain.CapVoice)
	}

	inputImages := req.InputImages
	if len(inputImages) > 0 && !tool.Caps.Has(domain.CapInputImages) {
		inputImages = nil
		plan.Dropped = append(plan.Dropped, domain.CapInputImages)
	}

	count := req.Count()
	batched := tool.Caps.Has(domain.CapNumOutputs)

	units := count
	perCall := 1
	if batched {
		units = 1
		perCall = count
	}

	for i := 0; i < units; i++ {
		call := &domain.GenerationCall{
			Prompt:      prompt,
			Model:       tool.Model,
			AspectRatio: req.AspectRatio,
			InputImages: inputImages,
			NumOutputs:  perCall,
			Params:      params,
		}
		if tool.RequiresEnvelope {
			call.CallID = NewCallID()
		}
		plan.Calls = append(plan.Calls, call)
	}
	return plan
}

// NewCallID mints a synthetic call identifier for enveloped tools.
func NewCallID() string {
	id := uuid.New()
	return fmt.Sprintf("call_%x", id[:4])
}

func foldNegative(prompt, negative string) string {
	return strings.TrimRight(prompt, ". ") + ". Avoid: " + negative
}

func foldStyle(prompt, style string) string {
	return strings.TrimRight(prompt, ". ") + ", " + style + " style"
}
