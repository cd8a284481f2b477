// Package testutil provides a scriptable fake of the rounds backend API.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sallamaty/rounds-console/pkg/client"
)

// Request is a request the fake backend received
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// Backend serves canned responses keyed by method and path
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

// NewBackend starts a fake backend that is closed when t finishes
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{handlers: make(map[string]http.HandlerFunc)}

	r := chi.NewRouter()
	r.Use(b.record)
	r.HandleFunc("/*", b.dispatch)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the backend base URL
func (b *Backend) URL() string {
	return b.Server.URL
}

// Handle installs h for method and path, replacing any earlier handler
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[method+" "+path] = h
}

// JSON answers method and path with status and body. A string or []byte
// body is sent verbatim, anything else is JSON-encoded.
func (b *Backend) JSON(method, path string, status int, body any) {
	var payload []byte
	switch v := body.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		var err error
		if payload, err = json.Marshal(v); err != nil {
			panic(err)
		}
	}

	b.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(payload)
	})
}

// Requests returns every request received so far
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests hit method and path
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Client returns a client for the backend authenticated with token
func (b *Backend) Client(token string, opts ...client.Option) *client.Client {
	return client.NewClient(b.URL(), client.NewStaticToken(token), opts...)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		b.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) dispatch(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	h, ok := b.handlers[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"route not found"}`))
		return
	}
	h(w, r)
}
