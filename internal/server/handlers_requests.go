package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tinkerloft/frontdesk/internal/bus"
	"github.com/tinkerloft/frontdesk/internal/model"
)

type createRequestInput struct {
	Question      string            `json:"question"`
	CustomerID    string            `json:"customer_id"`
	CustomerPhone string            `json:"customer_phone"`
	CustomerName  string            `json:"customer_name"`
	Context       map[string]string `json:"context"`
}

// handleCreateRequest creates a pending help request directly, bypassing the
// resolver. The dashboard uses it to file questions captured out of band.
func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var in createRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	req := model.NewHelpRequest(in.Question, in.CustomerID, in.CustomerPhone, in.CustomerName, in.Context)
	if err := s.deps.Requests.Create(r.Context(), req); err != nil {
		writeStoreError(w, err)
		return
	}

	if s.deps.Bus != nil {
		s.deps.Bus.Publish(bus.Event{
			Type:       bus.EventNewHelpRequest,
			RequestID:  req.ID,
			Question:   req.Question,
			CustomerID: req.CustomerID,
		})
	}

	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	s.listRequests(w, r, string(model.RequestStatusPending))
}

func (s *Server) handleAllRequests(w http.ResponseWriter, r *http.Request) {
	s.listRequests(w, r, model.StatusAll)
}

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request, status string) {
	requests, err := s.deps.Requests.List(r.Context(), status, 0)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if requests == nil {
		requests = []model.HelpRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"count":    len(requests),
	})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := s.deps.Requests.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type respondInput struct {
	RequestID        string `json:"request_id"`
	SupervisorAnswer string `json:"supervisor_answer"`
	SupervisorID     string `json:"supervisor_id"`
}

// handleRespond applies a supervisor's answer to a pending request.
func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var in respondInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.RequestID == "" || in.SupervisorAnswer == "" {
		writeError(w, http.StatusBadRequest, "request_id and supervisor_answer are required")
		return
	}

	updated, err := s.deps.Resolver.Resolve(r.Context(), in.RequestID, in.SupervisorAnswer, in.SupervisorID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ResolutionsTotal.Inc()
	}
	writeJSON(w, http.StatusOK, updated)
}
