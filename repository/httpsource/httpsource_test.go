package httpsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marpio/gallery/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/database.json":
			w.Write([]byte(`{"images":[{"id":1,"title":"Sunset","category":"Nature","images":[{"url":"a.jpg"}]}]}`))
		case "/broken.json":
			w.Write([]byte(`{"images":`))
		case "/error.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	db, err := New(srv.URL+"/database.json", nil).Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, db.Images, 1)
	assert.Equal(t, "a.jpg", db.Images[0].Thumbnail())

	_, err = New(srv.URL+"/missing.json", srv.Client()).Fetch(ctx)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = New(srv.URL+"/broken.json", nil).Fetch(ctx)
	assert.Error(t, err)

	_, err = New(srv.URL+"/error.json", nil).Fetch(ctx)
	assert.Error(t, err)
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := New(url+"/database.json", nil).Fetch(context.Background())
	assert.Error(t, err)
}
