// Package blobstore keeps uploaded source documents on local disk with a
// sqlite metadata index, so every ingested batch can be traced back to the
// exact bytes it came from.
package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrBlobNotFound indicates the requested blob does not exist in the store.
var ErrBlobNotFound = errors.New("blob not found")

// Metadata describes a stored blob.
type Metadata struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Store is a local-directory blob store with a sqlite index.
type Store struct {
	dir    string
	db     *sql.DB
	logger *slog.Logger
}

const indexSchema = `
	CREATE TABLE IF NOT EXISTS blobs (
		name         TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		size         INTEGER NOT NULL,
		uploaded_at  TIMESTAMP NOT NULL
	)`

// Open prepares the blob directory and its index.
func Open(dir, indexPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	db, err := sql.Open("sqlite", indexPath)
	if err != nil {
		return nil, fmt.Errorf("open blob index: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init blob index: %w", err)
	}
	return &Store{dir: dir, db: db, logger: logger}, nil
}

// Close closes the index database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes blob bytes to disk and records them in the index, replacing
// any previous blob with the same name.
func (s *Store) Save(ctx context.Context, name, contentType string, r io.Reader) (Metadata, error) {
	name = sanitizeName(name)
	if name == "" {
		return Metadata{}, fmt.Errorf("blob name is required")
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("create blob file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return Metadata{}, fmt.Errorf("write blob: %w", err)
	}

	meta := Metadata{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (name, content_type, size, uploaded_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET content_type = excluded.content_type,
			size = excluded.size, uploaded_at = excluded.uploaded_at`,
		meta.Name, meta.ContentType, meta.Size, meta.UploadedAt,
	)
	if err != nil {
		_ = os.Remove(path)
		return Metadata{}, fmt.Errorf("index blob: %w", err)
	}

	s.logger.Info("blob stored", "name", name, "size", size)
	return meta, nil
}

// Stat returns blob metadata.
func (s *Store) Stat(ctx context.Context, name string) (Metadata, error) {
	name = sanitizeName(name)
	var meta Metadata
	err := s.db.QueryRowContext(ctx,
		`SELECT name, content_type, size, uploaded_at FROM blobs WHERE name = ?`, name,
	).Scan(&meta.Name, &meta.ContentType, &meta.Size, &meta.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Metadata{}, ErrBlobNotFound
	}
	if err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// Open returns a reader over the blob bytes plus its metadata. The caller
// closes the reader.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, Metadata, error) {
	meta, err := s.Stat(ctx, name)
	if err != nil {
		return nil, Metadata{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, meta.Name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, Metadata{}, ErrBlobNotFound
	}
	if err != nil {
		return nil, Metadata{}, err
	}
	return f, meta, nil
}

// List returns metadata for every stored blob, newest first.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, content_type, size, uploaded_at FROM blobs ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		var meta Metadata
		if err := rows.Scan(&meta.Name, &meta.ContentType, &meta.Size, &meta.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// Delete removes a blob and its index entry. Used to roll back an upload
// whose ingestion failed.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = sanitizeName(name)
	res, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBlobNotFound
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.logger.Info("blob deleted", "name", name)
	return nil
}

// sanitizeName strips any path components from a blob name.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
