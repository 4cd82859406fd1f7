// Package sqlite is the SQLite implementation of the persistence contracts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/artboardhq/artboard/internal/canvas"
	"github.com/artboardhq/artboard/internal/domain"
	"github.com/artboardhq/artboard/internal/storage"
)

// Store persists canvases and content records in a single SQLite database.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and ensures the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS canvases (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generated_content (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			url TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			media TEXT NOT NULL,
			prompt TEXT,
			tool_id TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generated_content_owner
			ON generated_content(owner, created_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadCanvas reads one canvas document. ok is false when the id is unknown.
func (s *Store) LoadCanvas(ctx context.Context, id string) (*canvas.Document, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM canvases WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load canvas: %w", err)
	}

	var doc canvas.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode canvas %s: %w", id, err)
	}
	if doc.Files == nil {
		doc.Files = make(map[string]canvas.FileRecord)
	}
	return &doc, true, nil
}

// SaveCanvas rewrites the full document in one statement.
func (s *Store) SaveCanvas(ctx context.Context, id string, doc *canvas.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode canvas: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO canvases (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save canvas: %w", err)
	}
	return nil
}

// DeleteCanvas removes a canvas document.
func (s *Store) DeleteCanvas(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM canvases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete canvas: %w", err)
	}
	return nil
}

// InsertContent records one generated artifact.
func (s *Store) InsertContent(ctx context.Context, rec *storage.ContentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_content (id, owner, url, mime_type, media, prompt, tool_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Owner, rec.URL, rec.MIMEType, string(rec.Media), rec.Prompt, rec.ToolID, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert content record: %w", err)
	}
	return nil
}

// ListContent returns the owner's records, newest first.
func (s *Store) ListContent(ctx context.Context, owner string) ([]*storage.ContentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, url, mime_type, media, prompt, tool_id, created_at
		 FROM generated_content WHERE owner = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	var records []*storage.ContentRecord
	for rows.Next() {
		var rec storage.ContentRecord
		var media string
		if err := rows.Scan(&rec.ID, &rec.Owner, &rec.URL, &rec.MIMEType, &media,
			&rec.Prompt, &rec.ToolID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content record: %w", err)
		}
		rec.Media = domain.MediaType(media)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// DeleteContent removes one record owned by owner.
func (s *Store) DeleteContent(ctx context.Context, owner, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM generated_content WHERE owner = ? AND id = ?`, owner, id); err != nil {
		return fmt.Errorf("failed to delete content record: %w", err)
	}
	return nil
}
