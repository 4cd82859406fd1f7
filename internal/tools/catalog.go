// Package tools maintains the catalog of callable generation tools and the
// live registry of tools backed by a configured provider.
package tools

import "github.com/artboardhq/artboard/internal/domain"

// catalog is the static tool table: every tool the server knows about, with
// its provider type, model identifier, and declared capability set. Which of
// these are actually dispatchable depends on configured credentials at
// registration time.
var catalog = []domain.ToolDescriptor{
	{
		ID:          "generate_image_dalle3",
		DisplayName: "DALL-E 3",
		Provider:    "openai",
		Model:       "dall-e-3",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapStyle),
	},
	{
		ID:          "generate_image_dalle2",
		DisplayName: "DALL-E 2",
		Provider:    "openai",
		Model:       "dall-e-2",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapNumOutputs),
	},
	{
		ID:          "generate_image_flux_schnell",
		DisplayName: "Flux Schnell",
		Provider:    "replicate",
		Model:       "black-forest-labs/flux-schnell",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapNumOutputs),
	},
	{
		ID:               "edit_image_flux_dev",
		DisplayName:      "Flux Dev",
		Provider:         "replicate",
		Model:            "black-forest-labs/flux-dev",
		Media:            domain.MediaImage,
		Caps:             domain.Caps(domain.CapNumOutputs, domain.CapGuidanceScale, domain.CapInputImages),
		RequiresEnvelope: true,
	},
	{
		ID:          "generate_image_sdxl",
		DisplayName: "Stable Diffusion XL",
		Provider:    "replicate",
		Model:       "stability-ai/sdxl",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapNumOutputs, domain.CapNegativePrompt, domain.CapGuidanceScale),
	},
	{
		ID:          "generate_image_recraft",
		DisplayName: "Recraft V3",
		Provider:    "replicate",
		Model:       "recraft-ai/recraft-v3",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapStyle),
	},
	{
		ID:          "generate_image_flux_pro",
		DisplayName: "Flux Pro",
		Provider:    "fal",
		Model:       "fal-ai/flux-pro/v1.1",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapNumOutputs, domain.CapGuidanceScale),
	},
	{
		ID:               "edit_image_flux_kontext",
		DisplayName:      "Flux Kontext",
		Provider:         "fal",
		Model:            "fal-ai/flux-pro/kontext",
		Media:            domain.MediaImage,
		Caps:             domain.Caps(domain.CapInputImages, domain.CapGuidanceScale),
		RequiresEnvelope: true,
	},
	{
		ID:          "generate_image_ideogram",
		DisplayName: "Ideogram V2",
		Provider:    "fal",
		Model:       "fal-ai/ideogram/v2",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapStyle, domain.CapNegativePrompt),
	},
	{
		ID:          "generate_video_kling",
		DisplayName: "Kling 1.6",
		Provider:    "fal",
		Model:       "fal-ai/kling-video/v1.6/standard",
		Media:       domain.MediaVideo,
		Caps:        domain.Caps(domain.CapDuration, domain.CapStartImage, domain.CapEndImage),
	},
	{
		ID:          "generate_video_veo3_fal",
		DisplayName: "Veo 3 (fal)",
		Provider:    "fal",
		Model:       "fal-ai/veo3",
		Media:       domain.MediaVideo,
		Caps:        domain.Caps(domain.CapDuration, domain.CapResolution),
	},
	{
		ID:          "generate_image_grok",
		DisplayName: "Grok Image",
		Provider:    "xai",
		Model:       "grok-2-image",
		Media:       domain.MediaImage,
		Caps:        domain.Caps(domain.CapNumOutputs),
	},
	{
		ID:          "generate_video_grok",
		DisplayName: "Grok Video",
		Provider:    "xai",
		Model:       "grok-video-1",
		Media:       domain.MediaVideo,
		Caps:        domain.Caps(domain.CapDuration, domain.CapInputImages),
	},
	{
		ID:          "generate_video_veo2",
		DisplayName: "Veo 2",
		Provider:    "veo",
		Model:       "veo-2.0-generate-001",
		Media:       domain.MediaVideo,
		Caps:        domain.Caps(domain.CapDuration, domain.CapInputImages),
	},
	{
		ID:          "generate_video_veo3",
		DisplayName: "Veo 3",
		Provider:    "veo",
		Model:       "veo-3.0-generate-001",
		Media:       domain.MediaVideo,
		Caps:        domain.Caps(domain.CapDuration, domain.CapResolution),
	},
	{
		ID:          "generate_video_sora",
		DisplayName: "Sora 2",
		Provider:    "sora",
		Model:       "sora-2",
		Media:       domain.MediaVideo,
		Caps:        domain.Caps(domain.CapDuration),
	},

	// Catalogued but not yet invocable.
	{
		ID:          "generate_image_midjourney",
		DisplayName: "Midjourney",
		Provider:    "midjourney",
		Media:       domain.MediaImage,
		Unavailable: true,
	},
	{
		ID:          "generate_video_runway",
		DisplayName: "Runway Gen-3",
		Provider:    "runway",
		Media:       domain.MediaVideo,
		Unavailable: true,
	},
}

// Catalog returns a copy of the full static tool table.
func Catalog() []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, len(catalog))
	copy(out, catalog)
	return out
}
