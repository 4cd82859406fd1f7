// Package sora implements OpenAI's video backend. It shares the OpenAI
// credential but has its own asynchronous job surface.
package sora

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
const ProviderType = "sora"

const (
	pollInterval    = 2 * time.Second
	defaultMaxTicks = 300
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
		ConfigKey:   "openai",
		Description: "OpenAI Sora video generation",
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
			provider.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			provider.WithRateLimit(cfg.RequestsPerMinute)),
		baseURL: cfg.BaseURL,
		poller:  poller.New(pollInterval, maxTicks),
	}
}

func (p *Provider) Name() string { return ProviderType }

type videoJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Data   []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// downloadURL returns the artifact URL carried by a completed job payload.
func (j *videoJob) downloadURL() string {
	for _, d := range j.Data {
		if d.URL != "" {
			return d.URL
		}
	}
	return ""
}

// videoSize maps the aspect ratio onto the fixed sizes the endpoint accepts.
func videoSize(ratio domain.AspectRatio) string {
	switch ratio {
	case domain.RatioPortrait, domain.RatioClassicTall:
		return "720x1280"
	case domain.RatioSquare:
		return "720x720"
	}
	return "1280x720"
}

// Generate submits a video job and polls it to completion. The completed
// status payload carries the downloadable artifact URL; the job's content
// endpoint is not usable here because it requires the provider credential.
func (p *Provider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	req := map[string]any{
		"model":  call.Model,
		"prompt": call.Prompt,
		"size":   videoSize(call.AspectRatio),
	}
	if call.Params.Duration != 0 {
		req["seconds"] = fmt.Sprintf("%d", call.Params.Duration)
	}

	var submitted videoJob
	if err := p.client.DoJSON(ctx, http.MethodPost, p.baseURL+"/videos", req, &submitted); err != nil {
		return domain.ToolOutput{}, err
	}
	if submitted.ID == "" {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "video submission missing job id",
		}
	}

	statusURL := fmt.Sprintf("%s/videos/%s", p.baseURL, submitted.ID)
	job, err := p.poller.Poll(ctx, submitted.ID, func(ctx context.Context) (domain.JobStatus, string, error) {
		var cur videoJob
		if err := p.client.DoJSON(ctx, http.MethodGet, statusURL, nil, &cur); err != nil {
			return "", "", err
		}
		switch cur.Status {
		case "completed":
			return domain.JobCompleted, cur.downloadURL(), nil
		case "failed":
			msg := "generation failed"
			if cur.Error != nil {
				msg = cur.Error.Message
			}
			return domain.JobFailed, msg, nil
		case "queued":
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
			Message:  "completed job carried no downloadable video url",
		}
	}

	return provider.VideoOutput(job.Output), nil
}
