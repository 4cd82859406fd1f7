// Package orchestrator coordinates one generation request end to end:
// resolve the tool, shape the calls, invoke the provider, normalize the
// output, and place each artifact on the canvas.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/artboardhq/artboard/internal/canvas"
	"github.com/artboardhq/artboard/internal/capability"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/normalize"
	"github.com/artboardhq/artboard/internal/storage"
)

// Request is one top-level generation submission.
type Request struct {
	domain.GenerationRequest

	ToolID string
	// CanvasID targets a shared canvas; empty means direct generation with
	// no placement.
	CanvasID string
	// SessionID routes realtime notifications.
	SessionID string
	// RequestID keys best-effort cancellation. Optional.
	RequestID string
	// Owner identifies whose gallery records the artifacts.
	Owner string
}

// Placed is one produced artifact and, when a canvas was targeted, the
// element it became.
type Placed struct {
	Result  domain.GenerationResult `json:"result"`
	FileID  string                  `json:"file_id"`
	Element *canvas.Element         `json:"element,omitempty"`
}

// ToolResolver maps a tool id to its descriptor and backing provider.
// *tools.Registry is the production implementation.
type ToolResolver interface {
	Resolve(id string) (domain.ToolDescriptor, domain.Provider, error)
}

// Orchestrator wires the pipeline. Engine and content store are optional for
// direct-generation deployments; ingest is optional and remote URLs pass
// through when it is absent.
type Orchestrator struct {
	registry ToolResolver
	engine   *canvas.Engine
	content  storage.ContentStore
	ingest   *Ingestor
	cancels  *cancelRegistry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEngine attaches the canvas mutation engine.
func WithEngine(e *canvas.Engine) Option {
	return func(o *Orchestrator) { o.engine = e }
}

// WithContentStore attaches gallery persistence.
func WithContentStore(s storage.ContentStore) Option {
	return func(o *Orchestrator) { o.content = s }
}

// WithIngestor attaches media ingestion.
func WithIngestor(i *Ingestor) Option {
	return func(o *Orchestrator) { o.ingest = i }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New builds an orchestrator over the tool registry.
func New(registry ToolResolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		cancels:  newCancelRegistry(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Cancel stops the in-flight request registered under id. Unknown ids are a
// no-op. Remote jobs already submitted are not retractable; only polling and
// remaining units stop.
func (o *Orchestrator) Cancel(id string) bool {
	return o.cancels.cancel(id)
}

// Run executes the request and returns the placed artifacts.
//
// Units run sequentially in request order. A failing unit is recorded and
// its siblings continue; the caller gets either a non-empty result list or
// the first unit's error, never an empty success.
func (o *Orchestrator) Run(ctx context.Context, req *Request) ([]Placed, error) {
	ctx, release := o.cancels.register(ctx, req.RequestID)
	defer release()

	ctx, span := o.tracer.Start(ctx, "generation.run",
		trace.WithAttributes(
			attribute.String("tool_id", req.ToolID),
			attribute.Int("num_outputs", req.Count()),
		))
	defer span.End()

	tool, prov, err := o.registry.Resolve(req.ToolID)
	if err != nil {
		return nil, err
	}

	plan := capability.Shape(tool, req.GenerationRequest)
	if len(plan.Dropped) > 0 || len(plan.Folded) > 0 {
		o.logger.Debug("request reshaped for tool",
			slog.String("tool_id", tool.ID),
			slog.Any("folded", plan.Folded),
			slog.Any("dropped", plan.Dropped))
	}

	var (
		placed   []Placed
		unitErrs []error
	)
	for i, call := range plan.Calls {
		if err := ctx.Err(); err != nil {
			unitErrs = append(unitErrs, fmt.Errorf("unit %d: %w", i, domain.ErrCancelled))
			break
		}

		results, err := o.runUnit(ctx, req, tool, prov, call)
		if err != nil {
			o.logger.Warn("generation unit failed",
				slog.String("tool_id", tool.ID),
				slog.Int("unit", i),
				slog.String("error", err.Error()))
			unitErrs = append(unitErrs, err)
			continue
		}
		placed = append(placed, results...)
	}

	if len(placed) == 0 {
		if len(unitErrs) > 0 {
			return nil, unitErrs[0]
		}
		return nil, domain.ErrNoMediaFound
	}
	return placed, nil
}

// runUnit performs one provider call and places every artifact it yields.
func (o *Orchestrator) runUnit(ctx context.Context, req *Request, tool domain.ToolDescriptor, prov domain.Provider, call *domain.GenerationCall) ([]Placed, error) {
	out, err := prov.Generate(ctx, call)
	if err != nil {
		return nil, err
	}

	urls := normalize.MediaURLs(out)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%s: %w", tool.ID, domain.ErrNoMediaFound)
	}

	w, h := call.AspectRatio.Dimensions()
	var placed []Placed
	for _, url := range urls {
		fileID := newFileID(tool.Media)

		mimeType := ""
		if o.ingest != nil {
			stored, ct, err := o.ingest.Ingest(ctx, req.Owner, url, fileID)
			if err != nil {
				// Keep the remote URL rather than losing the artifact.
				o.logger.Warn("media ingest failed",
					slog.String("url", url),
					slog.String("error", err.Error()))
			} else {
				url = normalize.StripLocalOrigin(stored)
				mimeType = ct
			}
		}
		if mimeType == "" {
			mimeType = guessMIME(url, tool.Media)
		}

		result := domain.GenerationResult{
			URL:      url,
			MIMEType: mimeType,
			Media:    tool.Media,
			Duration: call.Params.Duration,
		}
		if tool.Media == domain.MediaImage {
			result.Width, result.Height = w, h
		}

		p := Placed{Result: result, FileID: fileID}
		if req.CanvasID != "" && o.engine != nil {
			placement, err := o.engine.Place(ctx, req.CanvasID, req.SessionID, fileID, &result)
			if err != nil {
				// The artifact exists; placement bookkeeping failed. Return
				// it anyway and leave the failure in the log.
				o.logger.Error("canvas placement failed",
					slog.String("canvas_id", req.CanvasID),
					slog.String("error", err.Error()))
			} else {
				p.Element = &placement.Element
			}
		}

		if o.content != nil && req.Owner != "" {
			rec := &storage.ContentRecord{
				ID:       fileID,
				Owner:    req.Owner,
				URL:      result.URL,
				MIMEType: result.MIMEType,
				Media:    result.Media,
				Prompt:   req.Prompt,
				ToolID:   tool.ID,
			}
			if err := o.content.InsertContent(ctx, rec); err != nil {
				o.logger.Error("content record insert failed",
					slog.String("file_id", fileID),
					slog.String("error", err.Error()))
			}
		}

		placed = append(placed, p)
	}
	return placed, nil
}

// newFileID mints a short unique file identifier, im_ for images and vid_
// for videos. 48 bits of the UUID keep collisions negligible at gallery
// scale.
func newFileID(media domain.MediaType) string {
	id := uuid.New()
	prefix := "im"
	if media == domain.MediaVideo {
		prefix = "vid"
	}
	return fmt.Sprintf("%s_%x", prefix, id[:6])
}

// guessMIME derives a content type from the URL extension, falling back to
// the tool's media class.
func guessMIME(url string, media domain.MediaType) string {
	ext := path.Ext(strings.Split(url, "?")[0])
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	if media == domain.MediaVideo {
		return "video/mp4"
	}
	return "image/png"
}

// IsCancelled reports whether err stems from request cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled)
}
