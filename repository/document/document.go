// Package document keeps the gallery as a single JSON document on a
// gallery.Storage.
package document

import (
	"context"
	"fmt"

	"github.com/marpio/gallery"
	"github.com/marpio/gallery/repository"
)

// DefaultPath is the document name used when none is configured.
const DefaultPath = "database.json"

type documentStore struct {
	rs       gallery.Storage
	filename string
}

func New(rs gallery.Storage, filename string) repository.Repository {
	if filename == "" {
		filename = DefaultPath
	}
	return &documentStore{rs: rs, filename: filename}
}

func (s *documentStore) Fetch(ctx context.Context) (*gallery.Database, error) {
	if !s.rs.Exists(ctx, s.filename) {
		return nil, fmt.Errorf("%v: %w", s.filename, repository.ErrNotFound)
	}
	r, err := s.rs.NewReader(ctx, s.filename)
	if err != nil {
		return nil, fmt.Errorf("opening %v: %w", s.filename, err)
	}
	defer r.Close()
	return repository.Decode(r)
}

func (s *documentStore) Flush(ctx context.Context, db gallery.Database) error {
	w := s.rs.NewWriter(ctx, s.filename)
	if err := repository.Encode(w, db); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %v: %w", s.filename, err)
	}
	return nil
}
