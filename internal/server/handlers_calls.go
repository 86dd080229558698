package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tinkerloft/frontdesk/internal/agent"
	"github.com/tinkerloft/frontdesk/internal/calls"
	"github.com/tinkerloft/frontdesk/internal/metrics"
	"github.com/tinkerloft/frontdesk/internal/model"
)

type simulateCallInput struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name"`
	Question      string `json:"question"`
}

// handleSimulateCall runs one question through the resolver as a short
// simulated phone call: the question and the agent's reply are recorded on
// the call transcript, then the call completes into the log.
func (s *Server) handleSimulateCall(w http.ResponseWriter, r *http.Request) {
	var in simulateCallInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	sess := s.deps.Calls.Start(in.CustomerID, in.CustomerPhone, in.CustomerName)
	_ = s.deps.Calls.Append(sess.CallID, model.SpeakerCustomer, in.Question)

	caller := agent.Caller{
		CustomerID:    in.CustomerID,
		CustomerPhone: in.CustomerPhone,
		CustomerName:  in.CustomerName,
	}
	resp, err := s.deps.Resolver.Answer(r.Context(), in.Question, caller, map[string]string{"call_id": sess.CallID})
	if err != nil {
		s.countQuestion(metrics.OutcomeError)
		_, _ = s.deps.Calls.End(sess.CallID)
		writeStoreError(w, err)
		return
	}

	_ = s.deps.Calls.Append(sess.CallID, model.SpeakerAgent, resp.Response)
	_, _ = s.deps.Calls.End(sess.CallID)

	switch {
	case resp.KnowledgeUsed != nil:
		s.countQuestion(metrics.OutcomeKnowledge)
	case resp.NeedsHelp:
		s.countQuestion(metrics.OutcomeEscalated)
	default:
		s.countQuestion(metrics.OutcomeMatcher)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) countQuestion(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.QuestionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) handleActiveCalls(w http.ResponseWriter, r *http.Request) {
	active := s.deps.Calls.Active()
	writeJSON(w, http.StatusOK, map[string]any{
		"calls": active,
		"count": len(active),
	})
}

func (s *Server) handleCallLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs := s.deps.Calls.Logs(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}

// handleHoldCall places an active call on hold, e.g. while the agent waits
// on a supervisor.
func (s *Server) handleHoldCall(w http.ResponseWriter, r *http.Request) {
	s.setCallStatus(w, r, s.deps.Calls.Hold, model.CallStatusOnHold)
}

// handleResumeCall takes an on-hold call back to active.
func (s *Server) handleResumeCall(w http.ResponseWriter, r *http.Request) {
	s.setCallStatus(w, r, s.deps.Calls.Resume, model.CallStatusActive)
}

func (s *Server) setCallStatus(w http.ResponseWriter, r *http.Request, transition func(string) error, status model.CallStatus) {
	id := chi.URLParam(r, "id")
	if err := transition(id); err != nil {
		if errors.Is(err, calls.ErrCallNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"call_id": id,
		"status":  string(status),
	})
}
