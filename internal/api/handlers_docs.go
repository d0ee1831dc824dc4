package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListChunks returns the stored chunks of a document in order.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	store := s.orchestrator.Store()
	chunks, err := store.ListChunks(r.Context(), userID, docID)
	if err != nil {
		jsonError(w, "failed to list chunks: "+err.Error(), http.StatusBadGateway)
		return
	}
	if len(chunks) == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	resp := map[string]any{
		"doc_id": docID,
		"count":  len(chunks),
		"chunks": chunks,
	}
	if meta, err := store.GetDocumentMeta(r.Context(), userID, docID); err != nil {
		s.log.Warn("document meta read failed", "doc_id", docID, "error", err)
	} else if meta != nil {
		resp["document"] = meta
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleDeleteDocument deletes a document, its chunks and its dedup entry.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	found, err := s.orchestrator.Store().DeleteDocument(r.Context(), userID, docID)
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusBadGateway)
		return
	}
	if !found {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Info("document deleted", "doc_id", docID, "user_id", userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":  docID,
		"deleted": true,
	})
}

func (s *Server) handleChunkingStats(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.ChunkConfig()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"defaults": map[string]int{
			"max_chunk_size": cfg.MaxChunkSize,
			"overlap_size":   cfg.OverlapSize,
			"min_chunk_size": cfg.MinChunkSize,
		},
		"stats": s.orchestrator.Stats().Snapshot(),
	})
}
