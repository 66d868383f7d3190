package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docthemes/internal/llm"
)

type statsResponse struct {
	Model string `json:"model"`
	llm.StatsReport
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.LLM == nil || s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{Model: s.deps.LLM.Model(), StatsReport: s.deps.Stats.Report()})
}
