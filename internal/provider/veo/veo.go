// Package veo implements Google's Veo video backend through the long-running
// operations surface: submit returns an operation name, and the adapter
// polls the operation until its done flag is set.
package veo

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
const ProviderType = "veo"

const (
	pollInterval    = 10 * time.Second
	defaultMaxTicks = 180
)

type Provider struct {
	client  *provider.Client
	baseURL string
	apiKey  string
	poller  *poller.Poller
}

var _ domain.Provider = (*Provider)(nil)

// RegisterProviderFactory registers this provider with the registry.
// Credentials come from the shared google-ai config entry.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.Factory{
		Type:        ProviderType,
		ConfigKey:   "google-ai",
		Description: "Google Veo video generation",
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
			provider.WithHeader("x-goog-api-key", cfg.APIKey),
			provider.WithRateLimit(cfg.RequestsPerMinute)),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		poller:  poller.New(pollInterval, maxTicks),
	}
}

func (p *Provider) Name() string { return ProviderType }

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// Generate starts a long-running video operation and polls it to completion.
func (p *Provider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	instance := map[string]any{"prompt": call.Prompt}
	if len(call.InputImages) > 0 {
		instance["image"] = map[string]any{"gcsUri": call.InputImages[0]}
	}
	params := map[string]any{"aspectRatio": string(call.AspectRatio)}
	if call.Params.Duration != 0 {
		params["durationSeconds"] = call.Params.Duration
	}
	req := map[string]any{
		"instances":  []any{instance},
		"parameters": params,
	}

	var op operation
	submitURL := fmt.Sprintf("%s/models/%s:predictLongRunning", p.baseURL, call.Model)
	if err := p.client.DoJSON(ctx, http.MethodPost, submitURL, req, &op); err != nil {
		return domain.ToolOutput{}, err
	}
	if op.Name == "" {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "submission returned no operation name",
		}
	}

	opURL := fmt.Sprintf("%s/%s", p.baseURL, op.Name)
	job, err := p.poller.Poll(ctx, op.Name, func(ctx context.Context) (domain.JobStatus, string, error) {
		var cur operation
		if err := p.client.DoJSON(ctx, http.MethodGet, opURL, nil, &cur); err != nil {
			return "", "", err
		}
		if !cur.Done {
			return domain.JobRunning, "", nil
		}
		if cur.Error != nil {
			return domain.JobFailed, cur.Error.Message, nil
		}
		samples := cur.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) == 0 || samples[0].Video.URI == "" {
			return domain.JobFailed, "operation finished without video output", nil
		}
		return domain.JobCompleted, samples[0].Video.URI, nil
	})
	if err != nil {
		return domain.ToolOutput{}, err
	}
	return provider.VideoOutput(job.Output), nil
}
