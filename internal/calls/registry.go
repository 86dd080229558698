// Package calls tracks simulated call sessions and their transcripts.
//
// In production this would sit in front of a real voice stack; for the
// dashboard it records the same session lifecycle (incoming, transcript,
// hold, end) against simulated calls.
package calls

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tinkerloft/frontdesk/internal/model"
)

// ErrCallNotFound is returned for operations on an unknown or ended call.
var ErrCallNotFound = errors.New("call not found")

// Registry owns the set of in-flight call sessions and the recent call log.
// It is created at service start and injected where needed; there is no
// package-level shared instance.
type Registry struct {
	mu     sync.Mutex
	active map[string]*model.CallSession
	logs   []model.CallSession
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*model.CallSession)}
}

// Start registers a new active call session and returns it.
func (r *Registry) Start(customerID, customerPhone, customerName string) model.CallSession {
	sess := model.NewCallSession(customerID, customerPhone, customerName)
	r.mu.Lock()
	r.active[sess.CallID] = &sess
	r.mu.Unlock()
	return sess
}

// Append records one utterance on an active call's transcript.
func (r *Registry) Append(callID string, speaker model.Speaker, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.active[callID]
	if !ok {
		return fmt.Errorf("call %s: %w", callID, ErrCallNotFound)
	}
	sess.Transcript = append(sess.Transcript, model.TranscriptLine{
		At:      model.NewTimestamp(time.Now().UTC()),
		Speaker: speaker,
		Text:    text,
	})
	return nil
}

// End completes an active call, moves it to the call log, and returns the
// finished session.
func (r *Registry) End(callID string) (model.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.active[callID]
	if !ok {
		return model.CallSession{}, fmt.Errorf("call %s: %w", callID, ErrCallNotFound)
	}
	delete(r.active, callID)

	sess.Status = model.CallStatusCompleted
	ended := model.NewTimestamp(time.Now().UTC())
	sess.EndedAt = &ended

	r.logs = append(r.logs, *sess)
	return *sess, nil
}

// Hold marks an active call as on hold.
func (r *Registry) Hold(callID string) error {
	return r.setStatus(callID, model.CallStatusOnHold)
}

// Resume returns an on-hold call to active.
func (r *Registry) Resume(callID string) error {
	return r.setStatus(callID, model.CallStatusActive)
}

func (r *Registry) setStatus(callID string, status model.CallStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.active[callID]
	if !ok {
		return fmt.Errorf("call %s: %w", callID, ErrCallNotFound)
	}
	sess.Status = status
	return nil
}

// Active returns a snapshot of all in-flight call sessions.
func (r *Registry) Active() []model.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]model.CallSession, 0, len(r.active))
	for _, sess := range r.active {
		sessions = append(sessions, *sess)
	}
	return sessions
}

// ActiveCount returns the number of in-flight calls.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Logs returns up to limit of the most recent completed calls.
// limit <= 0 returns all.
func (r *Registry) Logs(limit int) []model.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	logs := r.logs
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	out := make([]model.CallSession, len(logs))
	copy(out, logs)
	return out
}
