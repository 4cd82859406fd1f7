// Package objectstore publishes generated media bytes and hands back a
// fetchable URL.
package objectstore

import "context"

// ObjectStore uploads media for an owner and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, owner string, data []byte, filename, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}
