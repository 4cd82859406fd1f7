package fal

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
	p := New(config.ProviderConfig{BaseURL: baseURL, APIKey: "fal-test"})
	p.poller = poller.New(time.Millisecond, 10)
	return p
}

func TestGenerateSyncShortCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Key fal-test" {
			t.Errorf("auth = %q", auth)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		size := body["image_size"].(map[string]any)
		// 1:1 at ~1MP with 64-multiple sides.
		if size["width"].(float64) != 1024 || size["height"].(float64) != 1024 {
			t.Errorf("image_size = %v", size)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]string{{"url": "https://fal.media/img.png"}},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	out, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt: "a red cube", Model: "fal-ai/flux/schnell", AspectRatio: domain.RatioSquare,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out.Flatten(), "https://fal.media/img.png") {
		t.Errorf("output = %q", out.Flatten())
	}
}

func TestGenerateQueueFlow(t *testing.T) {
	var statusCalls atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/fal-ai/veo3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"request_id":   "req-1",
			"status":       "IN_QUEUE",
			"status_url":   srv.URL + "/fal-ai/veo3/requests/req-1/status",
			"response_url": srv.URL + "/fal-ai/veo3/requests/req-1",
		})
	})
	mux.HandleFunc("/fal-ai/veo3/requests/req-1/status", func(w http.ResponseWriter, r *http.Request) {
		status := "IN_PROGRESS"
		if statusCalls.Add(1) >= 3 {
			status = "COMPLETED"
		}
		json.NewEncoder(w).Encode(map[string]any{"status": status})
	})
	mux.HandleFunc("/fal-ai/veo3/requests/req-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"video": map[string]string{"url": "https://fal.media/clip.mp4"},
		})
	})

	p := newTestProvider(srv.URL)
	out, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt: "a red cube rotating", Model: "fal-ai/veo3", AspectRatio: domain.RatioLandscape,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out.Flatten(), "clip.mp4") {
		t.Errorf("output = %q", out.Flatten())
	}
	if statusCalls.Load() != 3 {
		t.Errorf("status calls = %d, want 3", statusCalls.Load())
	}
}

func TestGenerateQueueFailure(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/m", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"request_id": "req-2",
			"status_url": srv.URL + "/m/requests/req-2/status",
		})
	})
	mux.HandleFunc("/m/requests/req-2/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "FAILED", "error": "quota exceeded"})
	})

	p := newTestProvider(srv.URL)
	_, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt: "x", Model: "m", AspectRatio: domain.RatioSquare,
	})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v, want upstream failure", err)
	}
}

func TestGenerateMissingRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Generate(context.Background(), &domain.GenerationCall{
		Prompt: "x", Model: "m", AspectRatio: domain.RatioSquare,
	})
	if err == nil {
		t.Fatal("malformed response must be an error")
	}
}
