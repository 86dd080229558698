package model

// AgentResponse is the outcome of processing one customer question.
type AgentResponse struct {
	Response      string  `json:"response"`
	NeedsHelp     bool    `json:"needs_help"`
	HelpRequestID *string `json:"help_request_id,omitempty"`
	KnowledgeUsed *string `json:"knowledge_used,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
