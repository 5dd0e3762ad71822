package syncronizer

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/marpio/gallery"
)

// Service copies the gallery from a source to one or more sinks.
type Service struct {
	src   gallery.Source
	sinks []gallery.Flusher
}

func New(src gallery.Source, sinks ...gallery.Flusher) *Service {
	return &Service{src: src, sinks: sinks}
}

// Execute fetches the document once and flushes it to every sink. Unlike
// the store it does not fall back to an empty gallery: a failed fetch
// aborts before anything is overwritten.
func (s *Service) Execute(ctx context.Context, logctx log.Interface) (int, error) {
	db, err := s.src.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching gallery: %w", err)
	}
	logctx.WithField("items", len(db.Images)).Info("fetched gallery")
	for i, sink := range s.sinks {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := sink.Flush(ctx, *db); err != nil {
			return i, fmt.Errorf("flushing gallery to sink %d: %w", i, err)
		}
	}
	logctx.WithField("sinks", len(s.sinks)).Info("done syncing.")
	return len(s.sinks), nil
}
