// Package fal implements the fal.ai queue backend.
//
// Submissions go to the queue endpoint. When the backend answers with the
// finished images inline the adapter short-circuits; otherwise it polls the
// returned status URL and fetches the response once the queue reports
// completion.
package fal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/poller"
	"github.com/artboardhq/artboard/internal/provider"
	"github.com/artboardhq/artboard/internal/provider/registry"
)

// ProviderType is the provider type identifier.
const ProviderType = "fal"

const (
	pollInterval    = time.Second
	defaultMaxTicks = 120
)

type Provider struct {
	client  *provider.Client
	baseURL string
	poller  *poller.Poller
}

var _ domain.Provider = (*Provider)(nil)

// RegisterProviderFactory registers this provider with the registry.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.Factory{
		Type:        ProviderType,
		Description: "fal.ai queued generation",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return New(cfg), nil
		},
	})
}

// New builds the provider from its configuration.
func New(cfg config.ProviderConfig) *Provider {
	maxTicks := cfg.MaxPollTicks
	if maxTicks <= 0 {
		maxTicks = defaultMaxTicks
	}
	return &Provider{
		client: provider.NewClient(ProviderType,
			provider.WithHeader("Authorization", "Key "+cfg.APIKey),
			provider.WithRateLimit(cfg.RequestsPerMinute)),
		baseURL: cfg.BaseURL,
		poller:  poller.New(pollInterval, maxTicks),
	}
}

func (p *Provider) Name() string { return ProviderType }

type queueResponse struct {
	RequestID   string `json:"request_id"`
	Status      string `json:"status"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
	Error string `json:"error"`
}

// Generate submits to the model's queue and drives the request to completion.
func (p *Provider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	w, h := call.AspectRatio.Dimensions()
	payload := map[string]any{
		"prompt":     call.Prompt,
		"image_size": map[string]int{"width": w, "height": h},
	}
	if call.NumOutputs > 1 {
		payload["num_images"] = call.NumOutputs
	}
	if len(call.InputImages) == 1 {
		payload["image_url"] = call.InputImages[0]
	} else if len(call.InputImages) > 1 {
		payload["image_urls"] = call.InputImages
	}
	if call.Params.NegativePrompt != "" {
		payload["negative_prompt"] = call.Params.NegativePrompt
	}
	if call.Params.GuidanceScale != 0 {
		payload["guidance_scale"] = call.Params.GuidanceScale
	}
	if call.Params.Duration != 0 {
		payload["duration"] = call.Params.Duration
	}

	var submitted queueResponse
	submitURL := fmt.Sprintf("%s/%s", p.baseURL, call.Model)
	if err := p.client.DoJSON(ctx, http.MethodPost, submitURL, payload, &submitted); err != nil {
		return domain.ToolOutput{}, err
	}

	// Fast models answer inline without queueing.
	if out, ok := extract(&submitted); ok {
		return out, nil
	}
	if submitted.RequestID == "" {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "queue response carried neither output nor request id",
		}
	}

	statusURL := submitted.StatusURL
	if statusURL == "" {
		statusURL = fmt.Sprintf("%s/%s/requests/%s/status", p.baseURL, call.Model, submitted.RequestID)
	}
	responseURL := submitted.ResponseURL
	if responseURL == "" {
		responseURL = fmt.Sprintf("%s/%s/requests/%s", p.baseURL, call.Model, submitted.RequestID)
	}

	_, err := p.poller.Poll(ctx, submitted.RequestID, func(ctx context.Context) (domain.JobStatus, string, error) {
		var cur queueResponse
		if err := p.client.DoJSON(ctx, http.MethodGet, statusURL, nil, &cur); err != nil {
			return "", "", err
		}
		switch cur.Status {
		case "COMPLETED":
			return domain.JobCompleted, "", nil
		case "FAILED":
			return domain.JobFailed, cur.Error, nil
		case "IN_QUEUE":
			return domain.JobSubmitted, "", nil
		default:
			return domain.JobRunning, "", nil
		}
	})
	if err != nil {
		return domain.ToolOutput{}, err
	}

	var final queueResponse
	if err := p.client.DoJSON(ctx, http.MethodGet, responseURL, nil, &final); err != nil {
		return domain.ToolOutput{}, err
	}
	out, ok := extract(&final)
	if !ok {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "completed request contained no media",
		}
	}
	return out, nil
}

func extract(resp *queueResponse) (domain.ToolOutput, bool) {
	if resp.Video.URL != "" {
		return provider.VideoOutput(resp.Video.URL), true
	}
	var urls []string
	for _, img := range resp.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	if len(urls) == 0 {
		return domain.ToolOutput{}, false
	}
	return provider.ImageOutput(urls...), true
}
