package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/artboardhq/artboard/internal/domain"
)

// memStore is a naive canvas store; it deliberately has no locking of its own
// so the engine's serialization is what the concurrency test exercises.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	fail bool
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (s *memStore) LoadCanvas(ctx context.Context, id string) (*Document, bool, error) {
	s.mu.Lock()
	raw, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, err
	}
	return &doc, true, nil
}

func (s *memStore) SaveCanvas(ctx context.Context, id string, doc *Document) error {
	if s.fail {
		return errors.New("disk full")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[id] = raw
	s.mu.Unlock()
	return nil
}

type recordingHub struct {
	mu       sync.Mutex
	messages []any
}

func (h *recordingHub) Broadcast(sessionID string, message any) {
	h.mu.Lock()
	h.messages = append(h.messages, message)
	h.mu.Unlock()
}

func imageResult() *domain.GenerationResult {
	return &domain.GenerationResult{
		URL:      "/api/file/im_test.png",
		MIMEType: "image/png",
		Media:    domain.MediaImage,
		Width:    1024,
		Height:   1024,
	}
}

func TestPlaceAppendsElementAndFile(t *testing.T) {
	store := newMemStore()
	hub := &recordingHub{}
	eng := NewEngine(store, hub, nil)

	p, err := eng.Place(context.Background(), "c1", "s1", "im_aaaa1111", imageResult())
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if p.Element.FileID != "im_aaaa1111" {
		t.Errorf("element file id = %q", p.Element.FileID)
	}

	doc, ok, _ := store.LoadCanvas(context.Background(), "c1")
	if !ok {
		t.Fatal("canvas not persisted")
	}
	if len(doc.Elements) != 1 {
		t.Fatalf("elements = %d, want 1", len(doc.Elements))
	}
	if _, ok := doc.Files["im_aaaa1111"]; !ok {
		t.Error("file record missing for placed element")
	}
	if len(hub.messages) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(hub.messages))
	}
}

func TestPlaceConcurrentNoLostUpdates(t *testing.T) {
	store := newMemStore()
	eng := NewEngine(store, nil, nil)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fileID := fmt.Sprintf("im_%08d", i)
			if _, err := eng.Place(context.Background(), "shared", "", fileID, imageResult()); err != nil {
				t.Errorf("Place %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	doc, ok, _ := store.LoadCanvas(context.Background(), "shared")
	if !ok {
		t.Fatal("canvas not persisted")
	}
	if len(doc.Elements) != n {
		t.Fatalf("elements = %d, want %d (lost update)", len(doc.Elements), n)
	}
	if len(doc.Files) != n {
		t.Fatalf("file records = %d, want %d", len(doc.Files), n)
	}
	for i := 0; i < len(doc.Elements); i++ {
		a := doc.Elements[i]
		if _, ok := doc.Files[a.FileID]; !ok {
			t.Errorf("element %s references missing file %s", a.ID, a.FileID)
		}
		for j := i + 1; j < len(doc.Elements); j++ {
			b := doc.Elements[j]
			if intersects(Box{a.X, a.Y, a.Width, a.Height}, Box{b.X, b.Y, b.Width, b.Height}) {
				t.Errorf("elements %d and %d overlap", i, j)
			}
		}
	}
}

func TestHeldLockSurvivesCacheChurn(t *testing.T) {
	eng := NewEngine(newMemStore(), nil, nil)

	l := eng.acquire("pinned")

	// Cycle far more canvases than the idle cache holds while the lock is
	// held.
	for i := 0; i < 3*lockCacheSize; i++ {
		id := fmt.Sprintf("churn%d", i)
		cl := eng.acquire(id)
		eng.release(id, cl)
	}

	eng.lockMu.Lock()
	cur := eng.held["pinned"]
	eng.lockMu.Unlock()
	if cur != l {
		t.Fatal("held lock was replaced during cache churn")
	}

	// A second acquirer must block on the same lock, not a fresh one.
	entered := make(chan struct{})
	go func() {
		cl := eng.acquire("pinned")
		close(entered)
		eng.release("pinned", cl)
	}()
	select {
	case <-entered:
		t.Fatal("second acquire proceeded while the lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	eng.release("pinned", l)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestPlaceSaveFailureIsPlacementError(t *testing.T) {
	store := newMemStore()
	store.fail = true
	eng := NewEngine(store, nil, nil)

	_, err := eng.Place(context.Background(), "c1", "", "im_x", imageResult())
	var pe *domain.PlacementError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PlacementError", err)
	}
	if pe.CanvasID != "c1" {
		t.Errorf("canvas id = %q", pe.CanvasID)
	}
}

func TestPlaceVideoUsesEmbeddable(t *testing.T) {
	store := newMemStore()
	eng := NewEngine(store, nil, nil)

	res := &domain.GenerationResult{
		URL:      "https://cdn.example.com/clip.mp4",
		MIMEType: "video/mp4",
		Media:    domain.MediaVideo,
		Width:    1792,
		Height:   1024,
	}
	p, err := eng.Place(context.Background(), "c1", "", "vid_1", res)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if p.Element.Type != "embeddable" {
		t.Errorf("video element type = %q, want embeddable", p.Element.Type)
	}
}
