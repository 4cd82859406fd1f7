// Package replicate implements the Replicate prediction backend.
//
// Replicate is asynchronous: creating a prediction returns an id, and the
// adapter polls the prediction resource until it reaches a terminal status.
package replicate

import (
	"context"
	"encoding/json"
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
const ProviderType = "replicate"

const (
	pollInterval    = 5 * time.Second
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
		Description: "Replicate hosted model predictions",
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

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Generate submits a prediction for the model and polls it to completion.
func (p *Provider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	input := map[string]any{
		"prompt":       call.Prompt,
		"aspect_ratio": string(call.AspectRatio),
	}
	if call.NumOutputs > 1 {
		input["num_outputs"] = call.NumOutputs
	}
	if len(call.InputImages) > 0 {
		input["image"] = call.InputImages[0]
	}
	if call.Params.NegativePrompt != "" {
		input["negative_prompt"] = call.Params.NegativePrompt
	}
	if call.Params.GuidanceScale != 0 {
		input["guidance"] = call.Params.GuidanceScale
	}

	var pred prediction
	submitURL := fmt.Sprintf("%s/models/%s/predictions", p.baseURL, call.Model)
	if err := p.client.DoJSON(ctx, http.MethodPost, submitURL, map[string]any{"input": input}, &pred); err != nil {
		return domain.ToolOutput{}, err
	}
	if pred.ID == "" {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "prediction response missing id",
		}
	}

	statusURL := pred.URLs.Get
	if statusURL == "" {
		statusURL = fmt.Sprintf("%s/predictions/%s", p.baseURL, pred.ID)
	}

	job, err := p.poller.Poll(ctx, pred.ID, func(ctx context.Context) (domain.JobStatus, string, error) {
		var cur prediction
		if err := p.client.DoJSON(ctx, http.MethodGet, statusURL, nil, &cur); err != nil {
			return "", "", err
		}
		switch cur.Status {
		case "succeeded":
			return domain.JobCompleted, string(cur.Output), nil
		case "failed", "canceled":
			return domain.JobFailed, cur.Error, nil
		case "starting", "queued":
			return domain.JobSubmitted, "", nil
		default:
			return domain.JobRunning, "", nil
		}
	})
	if err != nil {
		return domain.ToolOutput{}, err
	}

	urls := outputURLs(json.RawMessage(job.Output))
	if len(urls) == 0 {
		return domain.ToolOutput{}, &domain.UpstreamError{
			Provider: ProviderType,
			Message:  "prediction output contained no URLs",
		}
	}
	return provider.ImageOutput(urls...), nil
}

// outputURLs handles the two output shapes replicate models produce: a bare
// URL string or an array of URL strings.
func outputURLs(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		var urls []string
		for _, u := range many {
			if u != "" {
				urls = append(urls, u)
			}
		}
		return urls
	}
	return nil
}
