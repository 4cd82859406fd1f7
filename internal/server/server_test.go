package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artboardhq/artboard/internal/canvas"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/orchestrator"
	"github.com/artboardhq/artboard/internal/storage/memory"
)

type fixedProvider struct{ text string }

func (p *fixedProvider) Name() string { return "fixed" }
func (p *fixedProvider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	return domain.PlainText(p.text), nil
}

type fixedResolver struct {
	tool domain.ToolDescriptor
	prov domain.Provider
	err  error
}

func (r *fixedResolver) Resolve(id string) (domain.ToolDescriptor, domain.Provider, error) {
	if r.err != nil {
		return domain.ToolDescriptor{}, nil, r.err
	}
	return r.tool, r.prov, nil
}

func newTestServer(t *testing.T, resolver orchestrator.ToolResolver) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	eng := canvas.NewEngine(store, nil, nil)
	orch := orchestrator.New(resolver,
		orchestrator.WithEngine(eng),
		orchestrator.WithContentStore(store))

	s := New(0, discardLogger(), Options{Orchestrator: orch, Content: store})
	srv := httptest.NewServer(s.Router)
	t.Cleanup(srv.Close)
	return srv, store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestGenerateEndToEnd(t *testing.T) {
	resolver := &fixedResolver{
		tool: domain.ToolDescriptor{ID: "t1", Model: "m", Media: domain.MediaImage, Caps: domain.Caps()},
		prov: &fixedProvider{text: "image generated successfully ![image_id: a.png](/api/file/a.png)"},
	}
	srv, store := newTestServer(t, resolver)

	resp := postJSON(t, srv.URL+"/api/generate", map[string]any{
		"prompt":       "a red cube",
		"aspect_ratio": "1:1",
		"tool_id":      "t1",
		"canvas_id":    "c1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Status  string `json:"status"`
		Results []struct {
			FileID string `json:"file_id"`
		} `json:"results"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Status != "completed" || len(out.Results) != 1 {
		t.Fatalf("response = %+v", out)
	}

	doc, ok, _ := store.LoadCanvas(context.Background(), "c1")
	if !ok || len(doc.Elements) != 1 {
		t.Error("canvas element not persisted")
	}
}

func TestGenerateValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fixedResolver{})

	cases := []map[string]any{
		{"aspect_ratio": "1:1", "tool_id": "t1"},              // no prompt
		{"prompt": "x", "aspect_ratio": "1:1"},                // no tool
		{"prompt": "x", "aspect_ratio": "2:7", "tool_id": "t"}, // bad ratio
	}
	for i, body := range cases {
		resp := postJSON(t, srv.URL+"/api/generate", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, resp.StatusCode)
		}
	}
}

func TestGenerateUnknownTool(t *testing.T) {
	srv, _ := newTestServer(t, &fixedResolver{err: domain.ErrUnknownTool})

	resp := postJSON(t, srv.URL+"/api/generate", map[string]any{
		"prompt": "x", "aspect_ratio": "1:1", "tool_id": "ghost",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGenerateUnavailableToolIsInBand(t *testing.T) {
	srv, _ := newTestServer(t, &fixedResolver{err: domain.ErrToolUnavailable})

	resp := postJSON(t, srv.URL+"/api/generate", map[string]any{
		"prompt": "x", "aspect_ratio": "1:1", "tool_id": "coming-soon",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Status != "unavailable" {
		t.Errorf("status = %q, want unavailable", out.Status)
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, &fixedResolver{err: domain.ErrNotConfigured})

	resp := postJSON(t, srv.URL+"/api/generate", map[string]any{
		"prompt": "x", "aspect_ratio": "1:1", "tool_id": "needs-key",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var out struct {
		Kind string `json:"kind"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Kind != "not_configured" {
		t.Errorf("kind = %q, want not_configured", out.Kind)
	}
}

func TestCancelEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fixedResolver{})

	resp := postJSON(t, srv.URL+"/api/cancel/req-unknown", nil)
	defer resp.Body.Close()
	var out struct {
		Cancelled bool `json:"cancelled"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Cancelled {
		t.Error("unknown request id must report cancelled=false")
	}
}

func TestFeatureEndpoint(t *testing.T) {
	resolver := &fixedResolver{
		tool: domain.ToolDescriptor{ID: "edit_image_flux_kontext", Model: "m", Media: domain.MediaImage,
			Caps: domain.Caps(domain.CapInputImages)},
		prov: &fixedProvider{text: "image generated successfully ![image_id: b.png](/api/file/b.png)"},
	}
	srv, _ := newTestServer(t, resolver)

	resp := postJSON(t, srv.URL+"/api/generate/feature", map[string]any{
		"feature":      "background_replace",
		"args":         map[string]string{"description": "a beach at sunset"},
		"input_images": []string{"/api/file/in.png"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	respUnknown := postJSON(t, srv.URL+"/api/generate/feature", map[string]any{"feature": "nope"})
	respUnknown.Body.Close()
	if respUnknown.StatusCode != http.StatusNotFound {
		t.Errorf("unknown feature status = %d, want 404", respUnknown.StatusCode)
	}
}

func TestContentEndpoints(t *testing.T) {
	resolver := &fixedResolver{
		tool: domain.ToolDescriptor{ID: "t1", Model: "m", Media: domain.MediaImage, Caps: domain.Caps()},
		prov: &fixedProvider{text: "![a](/api/file/a.png)"},
	}
	srv, _ := newTestServer(t, resolver)

	resp := postJSON(t, srv.URL+"/api/generate", map[string]any{
		"prompt": "x", "aspect_ratio": "1:1", "tool_id": "t1",
	})
	resp.Body.Close()

	listResp, err := http.Get(srv.URL + "/api/content")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var out struct {
		Content []struct {
			ID string `json:"id"`
		} `json:"content"`
	}
	json.NewDecoder(listResp.Body).Decode(&out)
	if len(out.Content) != 1 {
		t.Fatalf("content = %+v", out)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/content/"+out.Content[0].ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", delResp.StatusCode)
	}
}
