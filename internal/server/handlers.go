package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/feature"
	"github.com/artboardhq/artboard/internal/orchestrator"
	"github.com/artboardhq/artboard/internal/storage"
	"github.com/artboardhq/artboard/internal/tools"
)

type handlers struct {
	orch     *orchestrator.Orchestrator
	registry *tools.Registry
	content  storage.ContentStore
	logger   *slog.Logger
}

// generateRequest is the transport shape of one generation submission.
type generateRequest struct {
	Prompt      string                  `json:"prompt"`
	AspectRatio string                  `json:"aspect_ratio"`
	NumOutputs  int                     `json:"num_outputs,omitempty"`
	InputImages []string                `json:"input_images,omitempty"`
	Params      domain.GenerationParams `json:"params"`
	ToolID      string                  `json:"tool_id"`
	CanvasID    string                  `json:"canvas_id,omitempty"`
	SessionID   string                  `json:"session_id,omitempty"`
	RequestID   string                  `json:"request_id,omitempty"`
}

type generateResponse struct {
	Status  string                `json:"status"`
	Results []orchestrator.Placed `json:"results,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func owner(r *http.Request) string {
	if o := r.Header.Get("X-User-ID"); o != "" {
		return o
	}
	return "local"
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Prompt == "" || req.ToolID == "" {
		renderError(w, r, http.StatusBadRequest, "invalid_request",
			errors.New("prompt and tool_id are required"))
		return
	}
	ratio, err := domain.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	h.run(w, r, &orchestrator.Request{
		GenerationRequest: domain.GenerationRequest{
			Prompt:      req.Prompt,
			AspectRatio: ratio,
			InputImages: req.InputImages,
			NumOutputs:  req.NumOutputs,
			Params:      req.Params,
		},
		ToolID:    req.ToolID,
		CanvasID:  req.CanvasID,
		SessionID: req.SessionID,
		RequestID: req.RequestID,
		Owner:     owner(r),
	})
}

// featureRequest invokes a named preset instead of a free-form prompt.
type featureRequest struct {
	Feature     string            `json:"feature"`
	Args        map[string]string `json:"args,omitempty"`
	AspectRatio string            `json:"aspect_ratio,omitempty"`
	InputImages []string          `json:"input_images"`
	CanvasID    string            `json:"canvas_id,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
}

func (h *handlers) generateFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	preset, ok := feature.Get(req.Feature)
	if !ok {
		renderError(w, r, http.StatusNotFound, "unknown_feature",
			errors.New("no such feature: "+req.Feature))
		return
	}
	prompt, err := preset.Render(req.Args)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ratio := domain.RatioSquare
	if req.AspectRatio != "" {
		ratio, err = domain.ParseAspectRatio(req.AspectRatio)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	h.run(w, r, &orchestrator.Request{
		GenerationRequest: domain.GenerationRequest{
			Prompt:      prompt,
			AspectRatio: ratio,
			InputImages: req.InputImages,
		},
		ToolID:    preset.ToolID,
		CanvasID:  req.CanvasID,
		SessionID: req.SessionID,
		RequestID: req.RequestID,
		Owner:     owner(r),
	})
}

func (h *handlers) run(w http.ResponseWriter, r *http.Request, req *orchestrator.Request) {
	placed, err := h.orch.Run(r.Context(), req)
	if err != nil {
		renderGenerationError(w, r, err)
		return
	}
	render.JSON(w, r, generateResponse{Status: "completed", Results: placed})
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cancelled := h.orch.Cancel(id)
	render.JSON(w, r, map[string]any{"cancelled": cancelled})
}

func (h *handlers) listTools(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"tools": h.registry.List()})
}

func (h *handlers) listFeatures(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"features": feature.List()})
}

func (h *handlers) listContent(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		render.JSON(w, r, map[string]any{"content": []any{}})
		return
	}
	records, err := h.content.ListContent(r.Context(), owner(r))
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, "storage_error", err)
		return
	}
	if records == nil {
		records = []*storage.ContentRecord{}
	}
	render.JSON(w, r, map[string]any{"content": records})
}

func (h *handlers) deleteContent(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "no content store", Kind: "storage_error"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.content.DeleteContent(r.Context(), owner(r), id); err != nil {
		renderError(w, r, http.StatusInternalServerError, "storage_error", err)
		return
	}
	render.JSON(w, r, map[string]any{"deleted": id})
}

// renderGenerationError maps the error taxonomy onto transport statuses.
// An unavailable tool is a normal outcome, reported in-band rather than as
// an HTTP failure.
func renderGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrToolUnavailable):
		render.JSON(w, r, generateResponse{Status: "unavailable"})
	case orchestrator.IsCancelled(err):
		render.JSON(w, r, generateResponse{Status: "cancelled"})
	case errors.Is(err, domain.ErrUnknownTool):
		renderError(w, r, http.StatusNotFound, "unknown_tool", err)
	case errors.Is(err, domain.ErrNotConfigured):
		renderError(w, r, http.StatusServiceUnavailable, "not_configured", err)
	case errors.Is(err, domain.ErrJobTimedOut):
		renderError(w, r, http.StatusGatewayTimeout, "timed_out", err)
	case errors.Is(err, domain.ErrNoMediaFound):
		renderError(w, r, http.StatusBadGateway, "no_media", err)
	default:
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			renderError(w, r, http.StatusBadGateway, "upstream_error", err)
			return
		}
		renderError(w, r, http.StatusInternalServerError, "internal", err)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, kind string, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error(), Kind: kind})
}
