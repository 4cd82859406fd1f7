package replicate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/poller"
)

func newTestProvider(baseURL string) *Provider {
	p := New(config.ProviderConfig{BaseURL: baseURL, APIKey: "r8-test"})
	p.poller = poller.New(time.Millisecond, 10)
	return p
}

func TestGeneratePollsToCompletion(t *testing.T) {
	var statusCalls atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/models/black-forest-labs/flux-schnell/predictions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input map[string]any `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Input["prompt"] != "a red cube" {
			t.Errorf("prompt = %v", body.Input["prompt"])
		}
		if body.Input["aspect_ratio"] != "1:1" {
			t.Errorf("aspect_ratio = %v", body.Input["aspect_ratio"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "pred-1",
			"status": "starting",
			"urls":   map[string]string{"get": srv.URL + "/predictions/pred-1"},
		})
	})
	mux.HandleFunc("/predictions/pred-1", func(w http.ResponseWriter, r *http.Request) {
		n := statusCalls.Add(1)
		resp := map[string]any{"id": "pred-1", "status": "processing"}
		if n >= 3 {
			resp["status"] = "succeeded"
			resp["output"] = []string{"https://replicate.delivery/img1.png", "https://replicate.delivery/img2.png"}
		}
		json.NewEncoder(w).Encode(resp)
	})

	p := newTestProvider(srv.URL)
	out, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt:      "a red cube",
		Model:       "black-forest-labs/flux-schnell",
		AspectRatio: domain.RatioSquare,
		NumOutputs:  2,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	text := out.Flatten()
	if !strings.Contains(text, "img1.png") || !strings.Contains(text, "img2.png") {
		t.Errorf("output = %q", text)
	}
	if statusCalls.Load() != 3 {
		t.Errorf("status calls = %d, want 3", statusCalls.Load())
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/models/m/v/predictions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "pred-2", "status": "starting",
			"urls": map[string]string{"get": srv.URL + "/predictions/pred-2"},
		})
	})
	mux.HandleFunc("/predictions/pred-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "pred-2", "status": "failed", "error": "NSFW content detected",
		})
	})

	p := newTestProvider(srv.URL)
	_, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt: "x", Model: "m/v", AspectRatio: domain.RatioSquare,
	})
	if err == nil || !strings.Contains(err.Error(), "NSFW") {
		t.Fatalf("err = %v, want upstream error text", err)
	}
}

func TestGenerateTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/models/m/v/predictions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": "pred-3", "status": "starting",
			"urls": map[string]string{"get": srv.URL + "/predictions/pred-3"},
		})
	})
	mux.HandleFunc("/predictions/pred-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-3", "status": "processing"})
	})

	p := newTestProvider(srv.URL)
	_, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt: "x", Model: "m/v", AspectRatio: domain.RatioSquare,
	})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestOutputURLs(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"string output", `"https://x/img.png"`, 1},
		{"array output", `["https://x/a.png","https://x/b.png"]`, 2},
		{"empty array", `[]`, 0},
		{"null", `null`, 0},
		{"object", `{"weird":true}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := outputURLs(json.RawMessage(tc.raw)); len(got) != tc.want {
				t.Errorf("outputURLs(%s) = %v, want %d urls", tc.raw, got, tc.want)
			}
		})
	}
}
