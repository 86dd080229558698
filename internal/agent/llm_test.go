package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tinkerloft/frontdesk/internal/agent"
)

func TestParseMatchResult(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want agent.MatchResult
	}{
		{
			name: "plain answer",
			raw:  "We're open 9 AM to 8 PM.",
			want: agent.MatchResult{Response: "We're open 9 AM to 8 PM."},
		},
		{
			name: "bare escalation tag",
			raw:  "[ESCALATE]",
			want: agent.MatchResult{Escalate: true},
		},
		{
			name: "escalation tag with trailing note",
			raw:  "[ESCALATE] I don't have pricing for that service.",
			want: agent.MatchResult{Escalate: true, Response: "I don't have pricing for that service."},
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  \n[ESCALATE]\n",
			want: agent.MatchResult{Escalate: true},
		},
		{
			name: "tag in the middle is not an escalation",
			raw:  "The word [ESCALATE] appears in our training docs.",
			want: agent.MatchResult{Response: "The word [ESCALATE] appears in our training docs."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, agent.ParseMatchResult(tt.raw))
		})
	}
}

func TestBuildReceptionPrompt(t *testing.T) {
	prompt := agent.BuildReceptionPrompt("You answer for Glamour Haven Salon.", "Do you take walk-ins?")

	assert.Contains(t, prompt, "Glamour Haven Salon")
	assert.Contains(t, prompt, "[ESCALATE]")
	assert.Contains(t, prompt, "Customer question: Do you take walk-ins?")
}
