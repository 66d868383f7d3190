package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docthemes/internal/pipeline"
	"github.com/dgallion1/docthemes/internal/synth"
)

type queryRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.deps.Pipeline.Run(r.Context(), req.Query)
	if err != nil {
		var serr *synth.Error
		switch {
		case errors.Is(err, pipeline.ErrEmptyQuery):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &serr):
			s.log.Error("query failed", "error", err)
			jsonError(w, err.Error(), http.StatusBadGateway)
		default:
			s.log.Error("query failed", "error", err)
			jsonError(w, "query failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res.FilterDocuments(req.DocumentIDs))
}
