package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marpio/gallery/config"
	"github.com/marpio/gallery/repository"
	"github.com/marpio/gallery/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSyncToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "database.json"),
		[]byte(`{"images":[{"id":1,"title":"Sunset","category":"Nature","images":[{"url":"a.jpg","w":640}]}]}`), 0644))

	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = fsConfig(dir)

	require.NoError(t, runSync(ctx, config.SinkSQLite))

	db, err := sqlite.Open(cfg.SQLitePath)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "Sunset", got.Images[0].Title)
	assert.Equal(t, []string{"w"}, got.Images[0].Images[0].ExtraKeys())
}

func TestRunSyncMissingSource(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = fsConfig(t.TempDir())

	err := runSync(context.Background(), config.SinkLog)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRunSyncUnknownSink(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = fsConfig(t.TempDir())

	assert.Error(t, runSync(context.Background(), "ftp"))
}
