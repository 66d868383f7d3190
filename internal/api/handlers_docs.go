package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docthemes/internal/chunkstore"
)

// handleListDocuments lists every stored document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Store.Documents(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []chunkstore.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleDeleteDocument deletes a document's chunks and drops cached results.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	n, err := s.deps.Store.DeleteDocument(ctx, docID)
	if errors.Is(err, chunkstore.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.deps.Ingestor.Forget(docID)
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx); err != nil {
			s.log.Warn("cache invalidation failed", "doc_id", docID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document_id":    docID,
		"chunks_deleted": n,
	})
}
