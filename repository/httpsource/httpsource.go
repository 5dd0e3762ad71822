// Package httpsource fetches the gallery document over HTTP.
package httpsource

import (
	"context"
	"fmt"
	"net/http"

	"github.com/marpio/gallery"
	"github.com/marpio/gallery/repository"
)

type Source struct {
	url    string
	client *http.Client
}

// New returns a Source reading url with client, or http.DefaultClient when
// client is nil.
func New(url string, client *http.Client) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{url: url, client: client}
}

func (s *Source) Fetch(ctx context.Context) (*gallery.Database, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %v: %w", s.url, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%v: %w", s.url, repository.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching %v: unexpected status %v", s.url, resp.Status)
	}
	return repository.Decode(resp.Body)
}
