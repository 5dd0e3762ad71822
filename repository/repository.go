package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/marpio/gallery"
)

// ErrNotFound is returned by sources whose document does not exist.
var ErrNotFound = errors.New("gallery document not found")

// Repository both loads and flushes the gallery document.
type Repository interface {
	gallery.Source
	gallery.Flusher
}

// Decode reads a {"images": [...]} document. Null items are dropped.
func Decode(r io.Reader) (*gallery.Database, error) {
	var db gallery.Database
	dec := json.NewDecoder(r)
	if err := dec.Decode(&db); err != nil {
		return nil, fmt.Errorf("decoding gallery document: %w", err)
	}
	items := db.Images[:0]
	for _, it := range db.Images {
		if it != nil {
			items = append(items, it)
		}
	}
	db.Images = items
	if db.Images == nil {
		db.Images = make([]*gallery.Item, 0)
	}
	return &db, nil
}

// Encode writes db indented with four spaces.
func Encode(w io.Writer, db gallery.Database) error {
	if db.Images == nil {
		db.Images = make([]*gallery.Item, 0)
	}
	en := json.NewEncoder(w)
	en.SetIndent("", "    ")
	if err := en.Encode(db); err != nil {
		return fmt.Errorf("encoding gallery document: %w", err)
	}
	return nil
}
