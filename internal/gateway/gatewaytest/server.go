// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package gatewaytest provides a configurable marketplace API mock for tests.
package gatewaytest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Recorded is one request observed by the mock server.
type Recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

// JSONBody decodes the recorded body into v.
func (r Recorded) JSONBody(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server is an httptest.Server with routes mounted under /api.
type Server struct {
	*httptest.Server
	router chi.Router

	mu       sync.Mutex
	requests []Recorded
}

// NewServer starts a mock API. Unregistered routes answer 404 with a JSON message.
func NewServer() *Server {
	s := &Server{router: chi.NewRouter()}
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "route not found"})
	})

	root := chi.NewRouter()
	root.Use(s.record)
	root.Mount("/api", s.router)
	s.Server = httptest.NewServer(root)
	return s
}

// Handle registers h for method and a chi path pattern relative to /api.
func (s *Server) Handle(method, pattern string, h http.HandlerFunc) {
	s.router.MethodFunc(method, pattern, h)
}

// Requests returns a copy of all requests seen so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Last returns the most recent request, if any.
func (s *Server) Last() (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Recorded{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// JSON answers with status and body encoded as JSON.
func JSON(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	}
}

// Delayed runs h after d, or gives up when the client goes away.
func Delayed(d time.Duration, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(d):
			h(w, r)
		case <-r.Context().Done():
		}
	}
}

// Sequence answers each call with the next handler; the last one repeats.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[i]
		if i < len(handlers)-1 {
			i++
		}
		mu.Unlock()
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
