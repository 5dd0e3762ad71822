// Package server exposes the gallery store over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/apex/log"
	"github.com/aymerick/raymond"
	"github.com/goji/httpauth"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/marpio/gallery"
	"github.com/marpio/gallery/crypto"
	"github.com/marpio/gallery/store"
)

const indexTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Gallery</title></head>
<body>
<h1>Gallery</h1>
{{#if degraded}}<p class="warning">The gallery could not be loaded.</p>{{/if}}
<ul>
{{#each items}}  <li><a href="/api/items/{{href}}"><img src="{{thumbnail}}" alt="{{title}}"></a> {{title}} <small>{{category}}</small></li>
{{/each}}</ul>
</body>
</html>
`

const maxBodySize = 1 << 20

type Server struct {
	store  *store.Store
	logctx log.Interface
	index  *raymond.Template
}

func New(st *store.Store, logctx log.Interface) *Server {
	if logctx == nil {
		logctx = log.Log
	}
	return &Server{store: st, logctx: logctx, index: raymond.MustParse(indexTemplate)}
}

// Handler returns the routes, behind basic auth when username is set.
func (s *Server) Handler(username, password string) http.Handler {
	var h http.Handler = s.Router()
	if username != "" {
		h = httpauth.SimpleBasicAuth(username, password)(h)
	}
	return h
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.requestLogger)
	r.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", s.listHandler).Methods(http.MethodGet)
	api.HandleFunc("/items", s.addHandler).Methods(http.MethodPost)
	api.HandleFunc("/items/{title}", s.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/items/{title}", s.updateHandler).Methods(http.MethodPatch)
	api.HandleFunc("/items/{title}", s.deleteHandler).Methods(http.MethodDelete)
	api.HandleFunc("/items/{title}/images", s.addImagesHandler).Methods(http.MethodPost)
	api.HandleFunc("/reload", s.reloadHandler).Methods(http.MethodPost)
	return r
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.ListSummaries(r.Context())
	items := make([]map[string]interface{}, 0, len(summaries))
	for _, sm := range summaries {
		items = append(items, map[string]interface{}{
			"id":        sm.ID,
			"title":     sm.Title,
			"href":      url.PathEscape(sm.Title),
			"category":  sm.Category,
			"thumbnail": sm.Thumbnail,
		})
	}
	result, err := s.index.Exec(map[string]interface{}{
		"items":    items,
		"degraded": s.store.Initialize(r.Context()).Degraded(),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, result)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.store.Initialize(r.Context()).Degraded() {
		fmt.Fprint(w, "ok (degraded)")
		return
	}
	fmt.Fprint(w, "ok")
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	writeTagged(w, r, s.store.ListSummaries(r.Context()))
}

func (s *Server) getHandler(w http.ResponseWriter, r *http.Request) {
	title, ok := titleVar(w, r)
	if !ok {
		return
	}
	it, ok := s.store.GetItem(r.Context(), title)
	if !ok {
		writeNotFound(w, title)
		return
	}
	writeTagged(w, r, it)
}

func (s *Server) addHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w, r) {
		return
	}
	var it gallery.Item
	if !decodeBody(w, r, &it) {
		return
	}
	added, err := s.store.AddItem(r.Context(), it)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

type addImagesRequest struct {
	Images []gallery.ImageRef `json:"images"`
}

func (s *Server) addImagesHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w, r) {
		return
	}
	title, ok := titleVar(w, r)
	if !ok {
		return
	}
	var req addImagesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	it, ok, err := s.store.AddImagesToItem(r.Context(), title, req.Images)
	if !ok {
		writeNotFound(w, title)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w, r) {
		return
	}
	title, ok := titleVar(w, r)
	if !ok {
		return
	}
	var patch gallery.ItemPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	it, ok, err := s.store.UpdateItem(r.Context(), title, patch)
	if !ok {
		writeNotFound(w, title)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	if !s.writable(w, r) {
		return
	}
	title, ok := titleVar(w, r)
	if !ok {
		return
	}
	ok, err := s.store.DeleteItem(r.Context(), title)
	if !ok {
		writeNotFound(w, title)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	res := s.store.Reload(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    res.Items,
		"degraded": res.Degraded(),
	})
}

// writable rejects changes while the stored document is present but could
// not be loaded; flushing would replace it with the fallback gallery.
func (s *Server) writable(w http.ResponseWriter, r *http.Request) bool {
	res := s.store.Initialize(r.Context())
	if res.Writable() {
		return true
	}
	writeError(w, http.StatusServiceUnavailable, fmt.Errorf("gallery is read-only until it loads: %w", res.Err))
	return false
}

// titleVar returns the unescaped title; the router matches encoded paths so
// titles may contain slashes.
func titleVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	title, err := url.PathUnescape(mux.Vars(r)["title"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid title: %w", err))
		return "", false
	}
	return title, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logctx.WithFields(log.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeTagged writes v with an ETag of its encoding and answers a matching
// If-None-Match with 304.
func writeTagged(w http.ResponseWriter, r *http.Request, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	etag := `"` + crypto.GenerateSha256(b) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeNotFound(w http.ResponseWriter, title string) {
	writeError(w, http.StatusNotFound, errors.New("no gallery item titled "+title))
}
