package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/parser"
)

// chunkRequest is the JSON body for POST /api/chunk. Omitted sizes fall back
// to the service defaults.
type chunkRequest struct {
	Text         string `json:"text"`
	MaxChunkSize *int   `json:"max_chunk_size,omitempty"`
	OverlapSize  *int   `json:"overlap_size,omitempty"`
	MinChunkSize *int   `json:"min_chunk_size,omitempty"`
}

type chunkView struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Chars  int    `json:"chars"`
	Tokens int    `json:"tokens"`
}

// handleChunk chunks text synchronously without storing anything. It accepts
// either a JSON body or a multipart upload with a "file" field.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	var (
		text string
		cfg  chunker.Config
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		text, cfg, err = s.chunkInputFromForm(r)
	} else {
		text, cfg, err = s.chunkInputFromJSON(r)
	}
	if err != nil {
		writeInputError(w, err)
		return
	}

	chunks, err := chunker.Chunk(text, cfg)
	if err != nil {
		writeInputError(w, err)
		return
	}

	views := make([]chunkView, len(chunks))
	for i, c := range chunks {
		views[i] = chunkView{
			Index:  i,
			Text:   c,
			Chars:  utf8.RuneCountInString(c),
			Tokens: chunker.EstimateTokens(c),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":  len(views),
		"chunks": views,
		"config": map[string]int{
			"max_chunk_size": cfg.MaxChunkSize,
			"overlap_size":   cfg.OverlapSize,
			"min_chunk_size": cfg.MinChunkSize,
		},
	})
}

func (s *Server) chunkInputFromJSON(r *http.Request) (string, chunker.Config, error) {
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", chunker.Config{}, err
		}
		return "", chunker.Config{}, badRequest("invalid json body: " + err.Error())
	}
	cfg := s.cfg.ChunkConfig()
	if req.MaxChunkSize != nil {
		cfg.MaxChunkSize = *req.MaxChunkSize
	}
	if req.OverlapSize != nil {
		cfg.OverlapSize = *req.OverlapSize
	}
	if req.MinChunkSize != nil {
		cfg.MinChunkSize = *req.MinChunkSize
	}
	return req.Text, cfg, nil
}

func (s *Server) chunkInputFromForm(r *http.Request) (string, chunker.Config, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", chunker.Config{}, err
		}
		return "", chunker.Config{}, badRequest("invalid multipart form: " + err.Error())
	}
	defer r.MultipartForm.RemoveAll()

	cfg, err := s.chunkConfigFromForm(r.FormValue)
	if err != nil {
		return "", chunker.Config{}, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", chunker.Config{}, badRequest("file is required: " + err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", chunker.Config{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", chunker.Config{}, tooLarge(fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes))
	}

	filename := sanitizeFilename(header.Filename)
	p, err := parser.ForFile(filename, data[:min(len(data), 3072)], parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		return "", chunker.Config{}, badRequest(err.Error())
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return "", chunker.Config{}, badRequest("parse: " + err.Error())
	}
	return tree.PlainText(), cfg, nil
}

// chunkConfigFromForm applies the optional size overrides of an upload form
// to the service defaults. It does not validate the result.
func (s *Server) chunkConfigFromForm(get func(string) string) (chunker.Config, error) {
	cfg := s.cfg.ChunkConfig()
	fields := []struct {
		name string
		dst  *int
	}{
		{"max_chunk_size", &cfg.MaxChunkSize},
		{"overlap_size", &cfg.OverlapSize},
		{"min_chunk_size", &cfg.MinChunkSize},
	}
	for _, f := range fields {
		v := get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return chunker.Config{}, badRequest(fmt.Sprintf("%s must be an integer: %q", f.name, v))
		}
		*f.dst = n
	}
	return cfg, nil
}

// requestError is a client mistake answered with status.
type requestError struct {
	msg    string
	status int
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg, status: http.StatusBadRequest}
}

func tooLarge(msg string) error {
	return &requestError{msg: msg, status: http.StatusRequestEntityTooLarge}
}

// writeInputError maps chunking and request errors to a status code.
func writeInputError(w http.ResponseWriter, err error) {
	var cfgErr *chunker.ConfigError
	var reqErr *requestError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &cfgErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": cfgErr.Error(),
			"field": cfgErr.Field,
			"value": cfgErr.Value,
		})
	case errors.As(err, &maxErr):
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.As(err, &reqErr):
		jsonError(w, reqErr.msg, reqErr.status)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
