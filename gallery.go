package gallery

import (
	"context"
	"encoding/json"
	"io"
	"sort"
)

// DefaultThumbnail is the thumbnail reported for items without images.
const DefaultThumbnail = "default.jpg"

type Storage interface {
	StorageReader
	StorageWriter
	Exists(ctx context.Context, path string) bool
}

type StorageReader interface {
	NewReader(ctx context.Context, path string) (io.ReadCloser, error)
}

type StorageWriter interface {
	NewWriter(ctx context.Context, path string) io.WriteCloser
	Delete(ctx context.Context, path string) error
}

// Source fetches the whole gallery document.
type Source interface {
	Fetch(ctx context.Context) (*Database, error)
}

// Flusher writes the whole gallery document to durable storage.
// Implementations overwrite whatever was stored before.
type Flusher interface {
	Flush(ctx context.Context, db Database) error
}

// Database is the persisted aggregate: {"images": [...]}.
type Database struct {
	Images []*Item `json:"images"`
}

// Item is a named group of images with a category.
type Item struct {
	ID       int        `json:"id"`
	Title    string     `json:"title"`
	Category string     `json:"category"`
	Images   []ImageRef `json:"images"`
}

// ItemPatch carries the fields of an update. Nil fields are left untouched.
type ItemPatch struct {
	ID       *int        `json:"id,omitempty"`
	Title    *string     `json:"title,omitempty"`
	Category *string     `json:"category,omitempty"`
	Images   *[]ImageRef `json:"images,omitempty"`
}

type Summary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Thumbnail string `json:"thumbnail"`
}

// ImageRef points at an image by url. Any other fields of the JSON object
// are kept in Extra and written back unchanged.
type ImageRef struct {
	URL   string
	Extra map[string]json.RawMessage
}

func (r ImageRef) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.RawMessage, len(r.Extra)+1)
	for k, v := range r.Extra {
		m[k] = v
	}
	u, err := json.Marshal(r.URL)
	if err != nil {
		return nil, err
	}
	m["url"] = u
	return json.Marshal(m)
}

func (r *ImageRef) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var u string
	if raw, ok := m["url"]; ok {
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		delete(m, "url")
	}
	r.URL = u
	r.Extra = nil
	if len(m) > 0 {
		r.Extra = m
	}
	return nil
}

// ExtraKeys returns the names of the extra fields in sorted order.
func (r ImageRef) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Thumbnail returns the url of the first image or DefaultThumbnail.
func (it *Item) Thumbnail() string {
	if len(it.Images) == 0 {
		return DefaultThumbnail
	}
	return it.Images[0].URL
}

func (it *Item) Summary() Summary {
	return Summary{ID: it.ID, Title: it.Title, Category: it.Category, Thumbnail: it.Thumbnail()}
}

// Apply overwrites the fields present in p.
func (it *Item) Apply(p ItemPatch) {
	if p.ID != nil {
		it.ID = *p.ID
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Images != nil {
		it.Images = *p.Images
	}
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	if it.Images != nil {
		c.Images = make([]ImageRef, len(it.Images))
		for i, img := range it.Images {
			c.Images[i] = img.clone()
		}
	}
	return &c
}

func (r ImageRef) clone() ImageRef {
	c := ImageRef{URL: r.URL}
	if r.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// Clone returns a deep copy of the database.
func (db Database) Clone() Database {
	c := Database{Images: make([]*Item, 0, len(db.Images))}
	for _, it := range db.Images {
		c.Images = append(c.Images, it.Clone())
	}
	return c
}
