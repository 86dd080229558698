package agent

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// escalateTag is the marker the model prepends when it cannot answer
// confidently and the question should go to a supervisor.
const escalateTag = "[ESCALATE]"

// defaultBusinessProfile is the receptionist's standing business context.
// Deployments override it via config.
const defaultBusinessProfile = `You are an AI receptionist for "Glamour Haven Salon", a premium beauty salon.

BUSINESS INFORMATION:
- Location: 123 Beauty Street, Downtown
- Hours: Monday-Saturday 9 AM - 8 PM, Sunday 10 AM - 6 PM
- Phone: (555) 123-4567

SERVICES: haircuts and styling, hair coloring, treatments, nails, spa services.
BOOKING POLICY: appointments online or by phone, 24-hour cancellation policy.

IMPORTANT INSTRUCTIONS:
- Be friendly, professional, and helpful.
- Never make up information.`

// ClaudeMatcher asks Claude whether a question can be answered from the
// business profile. The model marks unanswerable questions with [ESCALATE].
type ClaudeMatcher struct {
	client  anthropic.Client
	profile string
}

// NewClaudeMatcher creates a matcher using ambient Anthropic credentials.
// An empty profile falls back to the default business profile.
func NewClaudeMatcher(profile string) *ClaudeMatcher {
	if profile == "" {
		profile = defaultBusinessProfile
	}
	return &ClaudeMatcher{client: anthropic.NewClient(), profile: profile}
}

// Match implements Matcher.
func (m *ClaudeMatcher) Match(ctx context.Context, question string) (MatchResult, error) {
	prompt := BuildReceptionPrompt(m.profile, question)

	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeHaiku4_5,
		MaxTokens: 300,
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					{OfText: &anthropic.TextBlockParam{Text: prompt}},
				},
			},
		},
	})
	if err != nil {
		return MatchResult{}, fmt.Errorf("calling Claude: %w", err)
	}

	var rawText string
	for _, block := range msg.Content {
		if block.Type == "text" {
			rawText += block.Text
		}
	}

	return ParseMatchResult(rawText), nil
}

// BuildReceptionPrompt constructs the prompt sent to Claude for one
// customer question. Exported so it can be tested independently.
func BuildReceptionPrompt(profile, question string) string {
	var sb strings.Builder

	sb.WriteString(profile)
	sb.WriteString(`

ESCALATION RULES:
- If the question is about something not covered above, respond with exactly: ` + escalateTag + `
- If the customer asks about specific availability, unlisted pricing, or special requests, escalate.
- If you are uncertain about any information, escalate rather than guessing.
- To escalate, start your response with ` + escalateTag + `

Customer question: `)
	sb.WriteString(question)

	return sb.String()
}

// ParseMatchResult interprets the model's reply: a leading [ESCALATE] tag
// means the question must go to a supervisor; anything else is the answer.
// Exported so it can be tested independently.
func ParseMatchResult(raw string) MatchResult {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, escalateTag) {
		return MatchResult{
			Escalate: true,
			Response: strings.TrimSpace(strings.TrimPrefix(text, escalateTag)),
		}
	}
	return MatchResult{Response: text}
}
