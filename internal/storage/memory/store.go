// Package memory is an in-memory implementation of the persistence
// contracts, used in tests and for ephemeral deployments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/artboardhq/artboard/internal/canvas"
	"github.com/artboardhq/artboard/internal/storage"
)

// Store keeps canvases and content records in process memory. Documents are
// stored serialized so callers never share mutable state with the store.
type Store struct {
	mu       sync.RWMutex
	canvases map[string][]byte
	content  map[string]*storage.ContentRecord
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		canvases: make(map[string][]byte),
		content:  make(map[string]*storage.ContentRecord),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) LoadCanvas(ctx context.Context, id string) (*canvas.Document, bool, error) {
	s.mu.RLock()
	raw, ok := s.canvases[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var doc canvas.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode canvas %s: %w", id, err)
	}
	if doc.Files == nil {
		doc.Files = make(map[string]canvas.FileRecord)
	}
	return &doc, true, nil
}

func (s *Store) SaveCanvas(ctx context.Context, id string, doc *canvas.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode canvas: %w", err)
	}
	s.mu.Lock()
	s.canvases[id] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteCanvas(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.canvases, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) InsertContent(ctx context.Context, rec *storage.ContentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cp := *rec
	s.mu.Lock()
	s.content[rec.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *Store) ListContent(ctx context.Context, owner string) ([]*storage.ContentRecord, error) {
	s.mu.RLock()
	var records []*storage.ContentRecord
	for _, rec := range s.content {
		if rec.Owner == owner {
			cp := *rec
			records = append(records, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Store) DeleteContent(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.content[id]; ok && rec.Owner == owner {
		delete(s.content, id)
	}
	return nil
}
