package feature

import (
	"strings"
	"testing"

	"github.com/artboardhq/artboard/internal/tools"
)

func TestRender(t *testing.T) {
	p, ok := Get("face_swap")
	if !ok {
		t.Fatal("face_swap preset missing")
	}
	prompt, err := p.Render(map[string]string{"description": "an astronaut"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(prompt, "an astronaut") {
		t.Errorf("prompt = %q", prompt)
	}
	if strings.Contains(prompt, "{") {
		t.Errorf("unsubstituted placeholder in %q", prompt)
	}
}

func TestRenderMissingArgument(t *testing.T) {
	p, _ := Get("background_replace")
	if _, err := p.Render(nil); err == nil {
		t.Error("missing argument must error")
	}
}

func TestRenderNoPlaceholders(t *testing.T) {
	p, _ := Get("upscale")
	prompt, err := p.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if prompt != p.Template {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestPresetsTargetCataloguedTools(t *testing.T) {
	known := map[string]bool{}
	for _, tool := range tools.Catalog() {
		known[tool.ID] = true
	}
	for _, p := range List() {
		if !known[p.ToolID] {
			t.Errorf("preset %s targets unknown tool %q", p.Name, p.ToolID)
		}
	}
}
