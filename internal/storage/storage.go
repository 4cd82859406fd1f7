// Package storage defines the persistence contracts consumed by the canvas
// engine and the content gallery.
package storage

import (
	"context"
	"time"

	"github.com/artboardhq/artboard/internal/canvas"
	"github.com/artboardhq/artboard/internal/domain"
)

// CanvasStore persists canvas documents. Documents are always rewritten
// whole; SaveCanvas must be atomic per canvas id.
type CanvasStore interface {
	LoadCanvas(ctx context.Context, id string) (*canvas.Document, bool, error)
	SaveCanvas(ctx context.Context, id string, doc *canvas.Document) error
	DeleteCanvas(ctx context.Context, id string) error
}

// ContentRecord is one generated artifact retained for the owner's gallery.
type ContentRecord struct {
	ID        string           `json:"id"`
	Owner     string           `json:"owner"`
	URL       string           `json:"url"`
	MIMEType  string           `json:"mime_type"`
	Media     domain.MediaType `json:"media"`
	Prompt    string           `json:"prompt,omitempty"`
	ToolID    string           `json:"tool_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ContentStore records generated artifacts keyed by owner identity.
type ContentStore interface {
	InsertContent(ctx context.Context, rec *ContentRecord) error
	ListContent(ctx context.Context, owner string) ([]*ContentRecord, error)
	DeleteContent(ctx context.Context, owner, id string) error
}

// Store is the full persistence surface the server wires up.
type Store interface {
	CanvasStore
	ContentStore
	Close() error
}
