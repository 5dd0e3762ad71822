package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/marpio/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) (*Store, string) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestFetchEmpty(t *testing.T) {
	s, _ := open(t)
	db, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, db.Images)
}

func TestFlushFetch(t *testing.T) {
	ctx := context.Background()
	s, path := open(t)
	in := gallery.Database{Images: []*gallery.Item{
		{ID: 1, Title: "Sunset", Category: "Nature", Images: []gallery.ImageRef{{URL: "a.jpg"}, {URL: "b.jpg"}}},
		{ID: 2, Title: "Harbour", Category: "City"},
	}}
	require.NoError(t, s.Flush(ctx, in))

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	db, err := s2.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, db.Images, 2)
	assert.Equal(t, "Sunset", db.Images[0].Title)
	assert.Equal(t, []gallery.ImageRef{{URL: "a.jpg"}, {URL: "b.jpg"}}, db.Images[0].Images)
	assert.Equal(t, 2, db.Images[1].ID)
	assert.Empty(t, db.Images[1].Images)
}

func TestFlushReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := open(t)
	require.NoError(t, s.Flush(ctx, gallery.Database{Images: []*gallery.Item{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}}))
	require.NoError(t, s.Flush(ctx, gallery.Database{Images: []*gallery.Item{{ID: 2, Title: "B"}}}))
	db, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, db.Images, 1)
	assert.Equal(t, "B", db.Images[0].Title)
}
