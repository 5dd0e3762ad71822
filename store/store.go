// Package store holds the gallery in memory and flushes it after every
// change.
//
// A Store is loaded once from a gallery.Source. A failed load is not fatal:
// the store continues with an empty gallery and reports the failure through
// LoadResult. Lookups by title are case-insensitive and return the first
// match in document order; a miss is reported as false, never as an error.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/repository"
)

// LoadResult describes the outcome of loading the gallery document.
type LoadResult struct {
	Items int
	Err   error
}

// Degraded reports whether the store fell back to an empty gallery.
func (r LoadResult) Degraded() bool {
	return r.Err != nil
}

// Writable reports whether flushing cannot overwrite a document that exists
// but failed to load. A document that does not exist yet is writable.
func (r LoadResult) Writable() bool {
	return r.Err == nil || errors.Is(r.Err, repository.ErrNotFound)
}

type Store struct {
	src    gallery.Source
	sink   gallery.Flusher
	logctx log.Interface

	once sync.Once
	mu   sync.RWMutex
	db   *gallery.Database
	last LoadResult
}

func New(src gallery.Source, sink gallery.Flusher, logctx log.Interface) *Store {
	if logctx == nil {
		logctx = log.Log
	}
	return &Store{src: src, sink: sink, logctx: logctx}
}

// Initialize loads the gallery document. Only the first call fetches it;
// later calls return the result of that first load.
func (s *Store) Initialize(ctx context.Context) LoadResult {
	s.initOnce(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// initOnce reports whether this call performed the first load.
func (s *Store) initOnce(ctx context.Context) bool {
	loaded := false
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.load(ctx)
		loaded = true
	})
	return loaded
}

// Reload fetches the document again and replaces the gallery. On a store
// that was never loaded it fetches only once.
func (s *Store) Reload(ctx context.Context) LoadResult {
	fresh := s.initOnce(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fresh {
		s.load(ctx)
	}
	return s.last
}

func (s *Store) load(ctx context.Context) {
	db, err := s.src.Fetch(ctx)
	if err != nil {
		s.logctx.WithError(err).Error("error loading database")
		db = &gallery.Database{}
	}
	if db.Images == nil {
		db.Images = make([]*gallery.Item, 0)
	}
	s.db = db
	s.last = LoadResult{Items: len(db.Images), Err: err}
	if err == nil {
		s.logctx.WithField("items", len(db.Images)).Debug("database loaded")
	}
}

// ListSummaries returns id, title, category and thumbnail of every item.
func (s *Store) ListSummaries(ctx context.Context) []gallery.Summary {
	s.Initialize(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]gallery.Summary, 0, len(s.db.Images))
	for _, it := range s.db.Images {
		res = append(res, it.Summary())
	}
	return res
}

// GetItem returns the stored item itself, not a copy.
func (s *Store) GetItem(ctx context.Context, title string) (*gallery.Item, bool) {
	s.Initialize(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(title)
	if i < 0 {
		return nil, false
	}
	return s.db.Images[i], true
}

// AddItem appends a copy of item with a newly assigned id. The error is
// the flush error; the item stays in memory either way.
func (s *Store) AddItem(ctx context.Context, item gallery.Item) (*gallery.Item, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	it := item.Clone()
	it.ID = s.nextID()
	s.db.Images = append(s.db.Images, it)
	return it, s.flush(ctx)
}

func (s *Store) AddImagesToItem(ctx context.Context, title string, images []gallery.ImageRef) (*gallery.Item, bool, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(title)
	if i < 0 {
		return nil, false, nil
	}
	it := s.db.Images[i]
	it.Images = append(it.Images, images...)
	return it, true, s.flush(ctx)
}

// UpdateItem overwrites the fields set in patch; the rest are kept.
func (s *Store) UpdateItem(ctx context.Context, title string, patch gallery.ItemPatch) (*gallery.Item, bool, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(title)
	if i < 0 {
		return nil, false, nil
	}
	it := s.db.Images[i]
	it.Apply(patch)
	return it, true, s.flush(ctx)
}

func (s *Store) DeleteItem(ctx context.Context, title string) (bool, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(title)
	if i < 0 {
		return false, nil
	}
	copy(s.db.Images[i:], s.db.Images[i+1:])
	s.db.Images[len(s.db.Images)-1] = nil
	s.db.Images = s.db.Images[:len(s.db.Images)-1]
	return true, s.flush(ctx)
}

// Persist flushes the current gallery.
func (s *Store) Persist(ctx context.Context) error {
	s.Initialize(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flush(ctx)
}

// Snapshot returns a deep copy of the gallery.
func (s *Store) Snapshot(ctx context.Context) gallery.Database {
	s.Initialize(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Clone()
}

func (s *Store) Len(ctx context.Context) int {
	s.Initialize(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.db.Images)
}

func (s *Store) indexOf(title string) int {
	for i, it := range s.db.Images {
		if strings.EqualFold(it.Title, title) {
			return i
		}
	}
	return -1
}

// nextID is one past the larger of the item count and the highest id.
func (s *Store) nextID() int {
	max := len(s.db.Images)
	for _, it := range s.db.Images {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

// flush must be called with s.mu held.
func (s *Store) flush(ctx context.Context) error {
	if err := s.sink.Flush(ctx, *s.db); err != nil {
		s.logctx.WithError(err).Error("error persisting database")
		return fmt.Errorf("persisting database: %w", err)
	}
	return nil
}
