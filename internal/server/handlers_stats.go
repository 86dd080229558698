package server

import "net/http"

// Stats is the dashboard counters snapshot, recomputed on every call.
type Stats struct {
	TotalRequests      int64 `json:"total_requests"`
	PendingRequests    int64 `json:"pending_requests"`
	ResolvedRequests   int64 `json:"resolved_requests"`
	UnresolvedRequests int64 `json:"unresolved_requests"`
	KnowledgeBaseSize  int64 `json:"knowledge_base_size"`
	ActiveCalls        int   `json:"active_calls"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.Requests.Counts(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	kbSize, err := s.deps.Knowledge.Count(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Stats{
		TotalRequests:      counts.Total,
		PendingRequests:    counts.Pending,
		ResolvedRequests:   counts.Resolved,
		UnresolvedRequests: counts.Unresolved,
		KnowledgeBaseSize:  kbSize,
		ActiveCalls:        s.deps.Calls.ActiveCount(),
	})
}
