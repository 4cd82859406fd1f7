package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/artboardhq/artboard/internal/objectstore"
	"github.com/artboardhq/artboard/internal/provider"
)

// Ingestor copies remote provider media into our own object store so stored
// references outlive the provider's signed-URL expiry. Server-relative URLs
// are already local and pass through untouched.
type Ingestor struct {
	store  objectstore.ObjectStore
	client *provider.Client
}

// NewIngestor builds an ingestor over the given object store.
func NewIngestor(store objectstore.ObjectStore) *Ingestor {
	return &Ingestor{
		store:  store,
		client: provider.NewClient("media-ingest"),
	}
}

// Ingest downloads url and republishes it under owner, returning the new URL
// and the detected content type.
func (i *Ingestor) Ingest(ctx context.Context, owner, url, fileID string) (string, string, error) {
	if !strings.HasPrefix(url, "http") {
		return url, "", nil
	}

	data, contentType, err := i.client.Fetch(ctx, url)
	if err != nil {
		return "", "", fmt.Errorf("fetch media: %w", err)
	}

	filename := fileID + extensionFor(contentType)
	stored, err := i.store.Upload(ctx, owner, data, filename, contentType)
	if err != nil {
		return "", "", fmt.Errorf("store media: %w", err)
	}
	return stored, contentType, nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	case strings.HasPrefix(contentType, "video/mp4"):
		return ".mp4"
	case strings.HasPrefix(contentType, "video/webm"):
		return ".webm"
	}
	return ""
}
