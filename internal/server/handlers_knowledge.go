package server

import (
	"encoding/json"
	"net/http"

	"github.com/tinkerloft/frontdesk/internal/model"
)

func (s *Server) handleAllKnowledge(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Knowledge.List(r.Context(), 0)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if entries == nil {
		entries = []model.KnowledgeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"knowledge": entries,
		"count":     len(entries),
	})
}

type addKnowledgeInput struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Source   string   `json:"source"`
	Tags     []string `json:"tags"`
}

func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var in addKnowledgeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Question == "" || in.Answer == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	source := model.KnowledgeSource(in.Source)
	if source == "" {
		source = model.KnowledgeSourceManual
	}
	if source != model.KnowledgeSourceManual && source != model.KnowledgeSourceSupervisor {
		writeError(w, http.StatusBadRequest, "source must be manual or supervisor")
		return
	}

	entry := model.NewKnowledgeEntry(in.Question, in.Answer, source, in.Tags)
	if err := s.deps.Knowledge.Add(r.Context(), entry); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSearchKnowledge(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	results, err := s.deps.Knowledge.Search(r.Context(), query)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	entries := make([]model.KnowledgeEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, res.Entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": entries,
		"count":   len(entries),
	})
}
