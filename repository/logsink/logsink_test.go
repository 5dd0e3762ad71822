package logsink

import (
	"context"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/marpio/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushLogs(t *testing.T) {
	h := memory.New()
	logger := &log.Logger{Handler: h, Level: log.InfoLevel}
	s := New(logger)
	db := gallery.Database{Images: []*gallery.Item{{ID: 1, Title: "Sunset"}}}

	require.NoError(t, s.Flush(context.Background(), db))
	require.Len(t, h.Entries, 1)
	e := h.Entries[0]
	assert.Equal(t, "database updated", e.Message)
	assert.Equal(t, 1, e.Fields.Get("items"))
	assert.Equal(t, []string{"Sunset"}, e.Fields.Get("titles"))
}
