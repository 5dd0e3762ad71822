package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = &log.Logger{Handler: discard.New(), Level: log.DebugLevel}

const encKey = "b567ef1d391e8a10d94100faa34b7d28fdab13e3f51f94b8b567ef1d391e8a10"

func fsConfig(dir string) *config.Config {
	return &config.Config{
		Storage:    config.StorageFS,
		Source:     config.SourceDocument,
		Sink:       config.SinkDocument,
		Document:   "database.json",
		DataDir:    dir,
		SQLitePath: filepath.Join(dir, "gallery.db"),
	}
}

func TestOpenStoreDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "database.json"),
		[]byte(`{"images":[{"id":1,"title":"Sunset","category":"Nature","images":[{"url":"a.jpg"}]}]}`), 0644))

	st, closeStore, err := openStore(ctx, fsConfig(dir), logger)
	require.NoError(t, err)
	defer closeStore()
	assert.False(t, st.Initialize(ctx).Degraded())
	_, err = st.AddItem(ctx, gallery.Item{Title: "Harbour"})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "database.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "Harbour")
}

func TestOpenStoreEncrypted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := fsConfig(dir)
	c.EncryptionKey = encKey

	st, closeStore, err := openStore(ctx, c, logger)
	require.NoError(t, err)
	defer closeStore()
	assert.True(t, st.Initialize(ctx).Degraded())
	_, err = st.AddItem(ctx, gallery.Item{Title: "Harbour"})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "database.json"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(b, []byte("Harbour")))

	st2, closeStore2, err := openStore(ctx, c, logger)
	require.NoError(t, err)
	defer closeStore2()
	_, ok := st2.GetItem(ctx, "harbour")
	assert.True(t, ok)
}

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := fsConfig(dir)
	c.Source = config.SourceSQLite
	c.Sink = config.SinkSQLite

	st, closeStore, err := openStore(ctx, c, logger)
	require.NoError(t, err)
	_, err = st.AddItem(ctx, gallery.Item{Title: "Harbour", Category: "City"})
	require.NoError(t, err)
	require.NoError(t, closeStore())

	st2, closeStore2, err := openStore(ctx, c, logger)
	require.NoError(t, err)
	defer closeStore2()
	it, ok := st2.GetItem(ctx, "HARBOUR")
	require.True(t, ok)
	assert.Equal(t, "City", it.Category)
}

func TestOpenStoreLogSink(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c := fsConfig(dir)
	c.Sink = config.SinkLog

	st, closeStore, err := openStore(ctx, c, logger)
	require.NoError(t, err)
	defer closeStore()
	_, err = st.AddItem(ctx, gallery.Item{Title: "Harbour"})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "database.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenStoreBadKey(t *testing.T) {
	c := fsConfig(t.TempDir())
	c.EncryptionKey = "xyz"
	_, _, err := openStore(context.Background(), c, logger)
	assert.Error(t, err)
}
