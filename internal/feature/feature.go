// Package feature maps named one-click editing features onto a tool id and
// a prompt template. Features run through the orchestrator like any other
// generation; the preset only decides which tool to call and how to phrase
// the prompt.
package feature

import (
	"fmt"
	"regexp"
	"sort"
)

// Preset is one named feature.
type Preset struct {
	Name     string `json:"name"`
	ToolID   string `json:"tool_id"`
	Template string `json:"template"`
}

// placeholder matches {name} slots in a template.
var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// presets is the feature dispatch table. Every preset targets an
// image-editing tool that accepts input images.
var presets = map[string]Preset{
	"face_swap": {
		Name:     "face_swap",
		ToolID:   "edit_image_flux_kontext",
		Template: "Swap the face of the person in the image with {description}. Keep the pose, lighting and background unchanged.",
	},
	"character_swap": {
		Name:     "character_swap",
		ToolID:   "edit_image_flux_kontext",
		Template: "Replace the main character in the image with {description}, preserving the scene composition.",
	},
	"inpaint": {
		Name:     "inpaint",
		ToolID:   "edit_image_flux_kontext",
		Template: "Fill the selected region of the image with {description}, blending seamlessly with the surroundings.",
	},
	"relight": {
		Name:     "relight",
		ToolID:   "edit_image_flux_kontext",
		Template: "Relight the image as {description}. Keep subjects and composition unchanged.",
	},
	"upscale": {
		Name:     "upscale",
		ToolID:   "edit_image_flux_dev",
		Template: "Upscale the image to a higher resolution, enhancing fine detail without altering content.",
	},
	"skin_enhance": {
		Name:     "skin_enhance",
		ToolID:   "edit_image_flux_kontext",
		Template: "Retouch the skin in the image naturally: even tone, remove blemishes, keep pores and texture realistic.",
	},
	"background_replace": {
		Name:     "background_replace",
		ToolID:   "edit_image_flux_kontext",
		Template: "Replace the background of the image with {description}. Keep the foreground subject intact with clean edges.",
	},
	"remove_objects": {
		Name:     "remove_objects",
		ToolID:   "edit_image_flux_kontext",
		Template: "Remove {description} from the image and reconstruct the area behind it.",
	},
	"ai_enhance": {
		Name:     "ai_enhance",
		ToolID:   "edit_image_flux_dev",
		Template: "Enhance the image: improve sharpness, color balance and dynamic range while keeping it photorealistic.",
	},
	"style_transfer": {
		Name:     "style_transfer",
		ToolID:   "edit_image_flux_kontext",
		Template: "Redraw the image in the style of {description}, preserving the original composition.",
	},
	"smart_crop": {
		Name:     "smart_crop",
		ToolID:   "edit_image_flux_dev",
		Template: "Crop and reframe the image around the main subject with balanced composition.",
	},
}

// Get returns the preset for name.
func Get(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// List returns all presets sorted by name.
func List() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Render substitutes the template's placeholders from args. Every
// placeholder must be supplied; extra args are ignored.
func (p Preset) Render(args map[string]string) (string, error) {
	var missing string
	rendered := placeholder.ReplaceAllStringFunc(p.Template, func(m string) string {
		key := m[1 : len(m)-1]
		val, ok := args[key]
		if !ok || val == "" {
			missing = key
			return m
		}
		return val
	})
	if missing != "" {
		return "", fmt.Errorf("feature %s: missing argument %q", p.Name, missing)
	}
	return rendered, nil
}
