package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/artboardhq/artboard/internal/domain"
)

// lockCacheSize bounds the idle per-canvas lock cache. Locks held or awaited
// by an in-flight mutation are pinned outside the cache and cannot be
// evicted; only cold canvases age out.
const lockCacheSize = 1024

// canvasLock guards one canvas id. refs counts holders and waiters; the lock
// returns to the idle cache only when refs drops to zero.
type canvasLock struct {
	mu   sync.Mutex
	refs int
}

// Store loads and persists canvas documents. SaveCanvas must write the
// document as a single atomic unit.
type Store interface {
	LoadCanvas(ctx context.Context, id string) (*Document, bool, error)
	SaveCanvas(ctx context.Context, id string, doc *Document) error
}

// Broadcaster pushes a notification to every subscriber of a session.
// Delivery is fire-and-forget.
type Broadcaster interface {
	Broadcast(sessionID string, message any)
}

// Placement reports one completed element insertion.
type Placement struct {
	Element Element
	FileID  string
}

// Engine serializes mutations per canvas id and applies the
// read-place-append-persist-broadcast cycle for each new artifact.
type Engine struct {
	store  Store
	hub    Broadcaster
	logger *slog.Logger

	lockMu sync.Mutex
	held   map[string]*canvasLock
	idle   *lru.Cache[string, *canvasLock]
}

// NewEngine builds a mutation engine over the given store and broadcaster.
// hub may be nil when no realtime transport is attached.
func NewEngine(store Store, hub Broadcaster, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	idle, err := lru.New[string, *canvasLock](lockCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(fmt.Sprintf("canvas lock cache: %v", err))
	}
	return &Engine{
		store:  store,
		hub:    hub,
		logger: logger,
		held:   make(map[string]*canvasLock),
		idle:   idle,
	}
}

// acquire locks the canvas and pins its lock so the idle cache cannot evict
// it while a mutation holds or awaits it. Every acquire must be paired with
// release.
func (e *Engine) acquire(canvasID string) *canvasLock {
	e.lockMu.Lock()
	l, ok := e.held[canvasID]
	if !ok {
		if cached, found := e.idle.Get(canvasID); found {
			l = cached
			e.idle.Remove(canvasID)
		} else {
			l = &canvasLock{}
		}
		e.held[canvasID] = l
	}
	l.refs++
	e.lockMu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks the canvas; the last holder parks the lock in the idle
// cache.
func (e *Engine) release(canvasID string, l *canvasLock) {
	l.mu.Unlock()

	e.lockMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.held, canvasID)
		e.idle.Add(canvasID, l)
	}
	e.lockMu.Unlock()
}

// Place inserts one generated artifact into the canvas under the canvas's
// exclusive lock: re-read the document, find a free slot, append the element
// and its file record, persist atomically, then notify sessionID subscribers.
//
// A persistence or broadcast failure after the artifact exists is returned as
// a PlacementError; callers keep the artifact and treat the error as
// log-only.
func (e *Engine) Place(ctx context.Context, canvasID, sessionID, fileID string, result *domain.GenerationResult) (*Placement, error) {
	l := e.acquire(canvasID)
	defer e.release(canvasID, l)

	doc, ok, err := e.store.LoadCanvas(ctx, canvasID)
	if err != nil {
		return nil, &domain.PlacementError{CanvasID: canvasID, Err: fmt.Errorf("load canvas: %w", err)}
	}
	if !ok {
		doc = NewDocument()
	}
	if doc.Files == nil {
		doc.Files = make(map[string]FileRecord)
	}

	w, h := float64(result.Width), float64(result.Height)
	if w <= 0 || h <= 0 {
		w, h = 512, 512
	}
	box := nextFreeSlot(elementBoxes(doc), w, h)

	el := newElement(fileID, box)
	if result.Media == domain.MediaVideo {
		el.Type = "embeddable"
	}
	doc.Elements = append(doc.Elements, el)
	doc.Files[fileID] = FileRecord{
		ID:        fileID,
		MIMEType:  result.MIMEType,
		DataURL:   result.URL,
		Created:   el.Updated,
		MediaType: result.Media,
	}

	if err := e.store.SaveCanvas(ctx, canvasID, doc); err != nil {
		return nil, &domain.PlacementError{CanvasID: canvasID, Err: fmt.Errorf("save canvas: %w", err)}
	}

	if e.hub != nil && sessionID != "" {
		e.hub.Broadcast(sessionID, map[string]any{
			"type":      "image_generated",
			"canvas_id": canvasID,
			"element":   el,
			"file": map[string]any{
				"id":       fileID,
				"url":      result.URL,
				"mimeType": result.MIMEType,
			},
		})
	}

	e.logger.Info("element placed",
		slog.String("canvas_id", canvasID),
		slog.String("file_id", fileID),
		slog.Float64("x", el.X),
		slog.Float64("y", el.Y))

	return &Placement{Element: el, FileID: fileID}, nil
}
