// Package model contains data models for the frontdesk receptionist service.
package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of a help request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusResolved   RequestStatus = "resolved"
	RequestStatusUnresolved RequestStatus = "unresolved"
)

// StatusAll is the list filter value matching every request regardless of status.
const StatusAll = "all"

// ValidStatus reports whether s is a known request status.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusPending, RequestStatusResolved, RequestStatusUnresolved:
		return true
	}
	return false
}

// HelpRequest is a customer question escalated for human handling.
// Requests are never deleted; they form the audit trail of escalations.
type HelpRequest struct {
	ID            string            `json:"id"`
	Question      string            `json:"question"`
	CustomerID    string            `json:"customer_id"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	CustomerName  string            `json:"customer_name,omitempty"`
	Context       map[string]string `json:"context,omitempty"`
	Status        RequestStatus     `json:"status"`
	CreatedAt     Timestamp         `json:"created_at"`
	ResolvedAt    *Timestamp        `json:"resolved_at,omitempty"`

	// Set only on the pending -> resolved transition, immutable thereafter.
	SupervisorAnswer *string `json:"supervisor_answer,omitempty"`
	SupervisorID     *string `json:"supervisor_id,omitempty"`
}

// NewHelpRequest creates a pending HelpRequest with a fresh ID.
func NewHelpRequest(question, customerID, customerPhone, customerName string, context map[string]string) HelpRequest {
	return HelpRequest{
		ID:            uuid.New().String(),
		Question:      question,
		CustomerID:    customerID,
		CustomerPhone: customerPhone,
		CustomerName:  customerName,
		Context:       context,
		Status:        RequestStatusPending,
		CreatedAt:     NewTimestamp(time.Now().UTC()),
	}
}

// Answered reports whether the supervisor-answer invariant holds:
// supervisor_answer is present iff status == resolved.
func (r HelpRequest) Answered() bool {
	return r.Status == RequestStatusResolved && r.SupervisorAnswer != nil
}
