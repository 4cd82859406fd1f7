// Package xai implements the xAI Grok backend: synchronous image generation
// and asynchronous video generation behind one provider.
package xai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/poller"
	"github.com/artboardhq/artboard/internal/provider"
	"github.com/artboardhq/artboard/internal/provider/registry"
)

// ProviderType is the provider type identifier.
const ProviderType = "xai"

const (
	videoPollInterval = 2 * time.Second
	videoMaxTicks     = 300
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
		Description: "xAI Grok image and video generation",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return New(cfg), nil
		},
	})
}

// New builds the provider from its configuration.
func New(cfg config.ProviderConfig) *Provider {
	maxTicks := cfg.MaxPollTicks
	if maxTicks <= 0 {
		maxTicks = videoMaxTicks
	}
	return &Provider{
		client: provider.NewClient(ProviderType,
			provider.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			provider.WithRateLimit(cfg.RequestsPerMinute)),
		baseURL: cfg.BaseURL,
		poller:  poller.New(videoPollInterval, maxTicks),
	}
}

func (p *Provider) Name() string { return ProviderType }

// Generate routes on the model family: grok video models go through the
// asynchronous video surface, everything else through synchronous images.
func (p *Provider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	if isVideoModel(call.Model) {
		return p.generateVideo(ctx, call)
	}
	return p.generateImage(ctx, call)
}

func isVideoModel(model string) bool {
	return strings.HasPrefix(model, "grok-video")
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (p *Provider) generateImage(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	n := call.NumOutputs
	if n < 1 {
		n = 1
	}
	req := map[string]any{
		"model":           call.Model,
		"prompt":          call.Prompt,
		"n":               n,
		"response_format": "url",
	}

	var resp imageResponse
	if err := p.client.DoJSON(ctx, http.MethodPost, p.baseURL+"/images/generations", req, &resp); err != nil {
		return domain.ToolOutput{}, err
	}

	var urls []string
	for _, d := range resp.Data {
		if d.URL != "" {
			urls = append(urls, d.URL)
		}
	}
	if len(urls) == 0 {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "response contained no image URLs",
		}
	}
	return provider.ImageOutput(urls...), nil
}

type videoJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Video  struct {
		URL string `json:"url"`
	} `json:"video"`
}

func (p *Provider) generateVideo(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	req := map[string]any{
		"model":        call.Model,
		"prompt":       call.Prompt,
		"aspect_ratio": string(call.AspectRatio),
	}
	if call.Params.Duration != 0 {
		req["duration"] = call.Params.Duration
	}
	if len(call.InputImages) > 0 {
		req["image_url"] = call.InputImages[0]
	}

	var submitted videoJob
	if err := p.client.DoJSON(ctx, http.MethodPost, p.baseURL+"/videos/generations", req, &submitted); err != nil {
		return domain.ToolOutput{}, err
	}
	if submitted.ID == "" {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "video submission missing job id",
		}
	}

	statusURL := fmt.Sprintf("%s/videos/generations/%s", p.baseURL, submitted.ID)
	job, err := p.poller.Poll(ctx, submitted.ID, func(ctx context.Context) (domain.JobStatus, string, error) {
		var cur videoJob
		if err := p.client.DoJSON(ctx, http.MethodGet, statusURL, nil, &cur); err != nil {
			return "", "", err
		}
		switch cur.Status {
		case "completed":
			return domain.JobCompleted, cur.Video.URL, nil
		case "failed", "cancelled":
			return domain.JobFailed, cur.Error, nil
		case "pending", "queued":
			return domain.JobSubmitted, "", nil
		default:
			return domain.JobRunning, "", nil
		}
	})
	if err != nil {
		return domain.ToolOutput{}, err
	}
	if job.Output == "" {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "completed video job carried no URL",
		}
	}
	return provider.VideoOutput(job.Output), nil
}
