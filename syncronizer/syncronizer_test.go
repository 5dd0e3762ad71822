package syncronizer

import (
	"context"
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/repository/document"
	"github.com/marpio/gallery/storage/filesystem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = &log.Logger{Handler: discard.New(), Level: log.InfoLevel}

type failingSink struct{}

func (failingSink) Flush(ctx context.Context, db gallery.Database) error {
	return errors.New("boom")
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	from := afero.NewMemMapFs()
	to := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(from, "database.json", []byte(`{"images":[{"id":1,"title":"Sunset"}]}`), 0644))

	s := New(document.New(filesystem.New(from), ""), document.New(filesystem.New(to), "copy.json"))
	n, err := s.Execute(ctx, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	db, err := document.New(filesystem.New(to), "copy.json").Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, db.Images, 1)
	assert.Equal(t, "Sunset", db.Images[0].Title)
}

func TestExecuteMissingSource(t *testing.T) {
	to := afero.NewMemMapFs()
	s := New(document.New(filesystem.New(afero.NewMemMapFs()), ""), document.New(filesystem.New(to), ""))
	_, err := s.Execute(context.Background(), logger)
	assert.Error(t, err)
	exists, _ := afero.Exists(to, "database.json")
	assert.False(t, exists)
}

func TestExecuteSinkError(t *testing.T) {
	from := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(from, "database.json", []byte(`{"images":[]}`), 0644))
	s := New(document.New(filesystem.New(from), ""), failingSink{})
	n, err := s.Execute(context.Background(), logger)
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}
