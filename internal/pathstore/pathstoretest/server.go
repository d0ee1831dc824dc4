// Package pathstoretest provides an in-memory pathstore server for tests.
package pathstoretest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Server is a minimal in-memory implementation of the pathstore KV and link
// endpoints, backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	nodes map[string]json.RawMessage
	links [][2]string

	// failPuts makes the next N PUT /kv requests answer with failStatus.
	failPuts   int
	failStatus int
	puts       int
}

func NewServer() *Server {
	s := &Server{nodes: make(map[string]json.RawMessage)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// FailNextPuts makes the next n node writes fail with status.
func (s *Server) FailNextPuts(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPuts = n
	s.failStatus = status
}

// Keys returns every stored key, sorted.
func (s *Server) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.nodes))
	for k := range s.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the raw JSON value stored at key.
func (s *Server) Value(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.nodes[key]
	return v, ok
}

// Links returns the recorded edges as from/to pairs.
func (s *Server) Links() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]string(nil), s.links...)
}

// Puts counts node write attempts, including failed ones.
func (s *Server) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/links" && r.Method == http.MethodPut {
		var req struct {
			From string `json:"from_key"`
			To   string `json:"to_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.links = append(s.links, [2]string{req.From, req.To})
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
		return
	}

	key, ok := strings.CutPrefix(r.URL.Path, "/kv/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		s.puts++
		if s.failPuts > 0 {
			s.failPuts--
			http.Error(w, "injected failure", s.failStatus)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.nodes[key] = req.Value
		w.WriteHeader(http.StatusOK)

	case http.MethodGet:
		if prefix, ok := strings.CutSuffix(key, "/*"); ok {
			s.list(w, prefix, r.URL.Query().Get("limit"))
			return
		}
		v, ok := s.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"key_path": key, "value": v})

	case http.MethodDelete:
		delete(s.nodes, key)
		if r.URL.Query().Get("children") == "true" {
			for k := range s.nodes {
				if strings.HasPrefix(k, key+"/") {
					delete(s.nodes, k)
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) list(w http.ResponseWriter, prefix, limitParam string) {
	var keys []string
	for k := range s.nodes {
		if strings.HasPrefix(k, prefix+"/") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	type node struct {
		Key   string          `json:"key_path"`
		Value json.RawMessage `json:"value"`
	}
	nodes := make([]node, 0, len(keys))
	for _, k := range keys {
		// The real server reports dotted key paths.
		nodes = append(nodes, node{Key: strings.ReplaceAll(k, "/", "."), Value: s.nodes[k]})
	}
	writeJSON(w, map[string]any{"nodes": nodes})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
