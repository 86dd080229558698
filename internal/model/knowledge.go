package model

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeSource describes how a knowledge entry was created.
type KnowledgeSource string

const (
	// KnowledgeSourceManual is a hand-entered entry (seed data or dashboard form).
	KnowledgeSourceManual KnowledgeSource = "manual"
	// KnowledgeSourceSupervisor is learned automatically from a resolved help request.
	KnowledgeSourceSupervisor KnowledgeSource = "supervisor"
)

// KnowledgeEntry is a stored question/answer pair usable to auto-answer
// future questions. Entries are never deleted; only usage_count changes.
type KnowledgeEntry struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	Source     KnowledgeSource `json:"source"`
	Tags       []string        `json:"tags,omitempty"`
	UsageCount int64           `json:"usage_count"`
	CreatedAt  Timestamp       `json:"created_at"`
}

// NewKnowledgeEntry creates a KnowledgeEntry with a fresh ID and zero usage.
func NewKnowledgeEntry(question, answer string, source KnowledgeSource, tags []string) KnowledgeEntry {
	return KnowledgeEntry{
		ID:        uuid.New().String(),
		Question:  question,
		Answer:    answer,
		Source:    source,
		Tags:      tags,
		CreatedAt: NewTimestamp(time.Now().UTC()),
	}
}
