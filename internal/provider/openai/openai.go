// Package openai implements the OpenAI image generation backend.
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/provider"
	"github.com/artboardhq/artboard/internal/provider/registry"
)

// ProviderType is the provider type identifier.
const ProviderType = "openai"

// Provider calls the images endpoint. Generation is synchronous: one HTTP
// round trip returns the artifact URLs.
type Provider struct {
	client  *provider.Client
	baseURL string
}

var _ domain.Provider = (*Provider)(nil)

// RegisterProviderFactory registers this provider with the registry.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.Factory{
		Type:        ProviderType,
		Description: "OpenAI image generation",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return New(cfg), nil
		},
	})
}

// New builds the provider from its configuration.
func New(cfg config.ProviderConfig) *Provider {
	return &Provider{
		client: provider.NewClient(ProviderType,
			provider.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			provider.WithRateLimit(cfg.RequestsPerMinute)),
		baseURL: cfg.BaseURL,
	}
}

func (p *Provider) Name() string { return ProviderType }

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
	Style          string `json:"style,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// size maps the generic aspect ratio onto the fixed sizes the endpoint
// accepts; unsupported ratios fall back to the nearest orientation.
func size(ratio domain.AspectRatio) string {
	switch ratio {
	case domain.RatioSquare:
		return "1024x1024"
	case domain.RatioLandscape, domain.RatioClassic, domain.RatioCinemascope:
		return "1792x1024"
	case domain.RatioPortrait, domain.RatioClassicTall:
		return "1024x1792"
	}
	return "1024x1024"
}

// Generate issues one images call. dall-e-3 rejects n > 1, so multi-output
// calls for it loop one request per unit.
func (p *Provider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	n := call.NumOutputs
	if n < 1 {
		n = 1
	}

	perRequest := n
	requests := 1
	if call.Model == "dall-e-3" && n > 1 {
		perRequest = 1
		requests = n
	}

	var urls []string
	for i := 0; i < requests; i++ {
		req := imageRequest{
			Model:          call.Model,
			Prompt:         call.Prompt,
			N:              perRequest,
			Size:           size(call.AspectRatio),
			ResponseFormat: "url",
			Style:          call.Params.Style,
		}

		var resp imageResponse
		if err := p.client.DoJSON(ctx, http.MethodPost, p.baseURL+"/images/generations", req, &resp); err != nil {
			return domain.ToolOutput{}, err
		}
		if len(resp.Data) == 0 {
			return domain.ToolOutput{}, &domain.UpstreamError{
				Provider: ProviderType,
				Message:  fmt.Sprintf("no image data in response for model %s", call.Model),
			}
		}
		for _, d := range resp.Data {
			if d.URL != "" {
				urls = append(urls, d.URL)
			}
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
