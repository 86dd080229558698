package model

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus represents the state of a simulated call session.
type CallStatus string

const (
	CallStatusActive    CallStatus = "active"
	CallStatusOnHold    CallStatus = "on_hold"
	CallStatusCompleted CallStatus = "completed"
)

// Speaker identifies who produced a transcript line.
type Speaker string

const (
	SpeakerCustomer Speaker = "customer"
	SpeakerAgent    Speaker = "ai_agent"
)

// TranscriptLine is one utterance within a call.
type TranscriptLine struct {
	At      Timestamp `json:"timestamp"`
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
}

// CallSession is one simulated voice call. Active sessions live in the call
// registry; completed sessions move to the call log.
type CallSession struct {
	CallID        string           `json:"call_id"`
	CustomerID    string           `json:"customer_id"`
	CustomerPhone string           `json:"customer_phone"`
	CustomerName  string           `json:"customer_name"`
	Status        CallStatus       `json:"status"`
	StartedAt     Timestamp        `json:"start_time"`
	EndedAt       *Timestamp       `json:"end_time,omitempty"`
	Transcript    []TranscriptLine `json:"transcript"`
}

// NewCallSession creates an active CallSession with a fresh ID.
func NewCallSession(customerID, customerPhone, customerName string) CallSession {
	return CallSession{
		CallID:        "call-" + uuid.New().String()[:8],
		CustomerID:    customerID,
		CustomerPhone: customerPhone,
		CustomerName:  customerName,
		Status:        CallStatusActive,
		StartedAt:     NewTimestamp(time.Now().UTC()),
	}
}
