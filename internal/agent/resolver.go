// Package agent implements the escalation resolver: it answers customer
// questions from the knowledge base when it can and escalates to a human
// supervisor when it cannot.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinkerloft/frontdesk/internal/bus"
	"github.com/tinkerloft/frontdesk/internal/model"
	"github.com/tinkerloft/frontdesk/internal/store"
)

// DeferralMessage is the fixed reply given when a question is escalated.
const DeferralMessage = "Let me check with my supervisor and get back to you shortly. We'll call you back with the answer!"

// fallbackMessage is used when the language-model matcher itself fails.
const fallbackMessage = "I'm having trouble processing your request. Let me get a supervisor to help you."

// matchThreshold is the minimum search score accepted as a confident
// knowledge-base answer. Below it the question goes to the matcher, or to a
// supervisor.
const matchThreshold = 0.5

// learnedTags mark knowledge entries created from supervisor resolutions.
var learnedTags = []string{"learned", "supervisor_response"}

// Caller identifies the customer behind a question.
type Caller struct {
	CustomerID    string
	CustomerPhone string
	CustomerName  string
}

// MatchResult is the outcome of the opaque language-model capability:
// either a direct response or a signal to escalate.
type MatchResult struct {
	Escalate bool
	Response string
}

// Matcher decides whether a question outside the knowledge base can still be
// answered. Implementations are external capabilities (an LLM call); the
// resolver only depends on the boolean-ish outcome.
type Matcher interface {
	Match(ctx context.Context, question string) (MatchResult, error)
}

// Resolver coordinates the help-request lifecycle across the request store,
// knowledge store, and notification bus.
type Resolver struct {
	requests  *store.RequestStore
	knowledge *store.KnowledgeStore
	bus       *bus.Bus
	matcher   Matcher // nil disables the LLM path; unmatched questions escalate
}

// NewResolver creates a Resolver. matcher may be nil.
func NewResolver(requests *store.RequestStore, knowledge *store.KnowledgeStore, b *bus.Bus, matcher Matcher) *Resolver {
	return &Resolver{requests: requests, knowledge: knowledge, bus: b, matcher: matcher}
}

// Answer processes one customer question. Knowledge base first; then the
// matcher if configured; escalation to a pending help request otherwise.
func (r *Resolver) Answer(ctx context.Context, question string, caller Caller, callContext map[string]string) (model.AgentResponse, error) {
	results, err := r.knowledge.Search(ctx, question)
	if err != nil {
		return model.AgentResponse{}, fmt.Errorf("searching knowledge base: %w", err)
	}

	if len(results) > 0 && results[0].Score >= matchThreshold {
		top := results[0].Entry
		if err := r.knowledge.IncrementUsage(ctx, top.ID); err != nil {
			return model.AgentResponse{}, fmt.Errorf("recording knowledge usage: %w", err)
		}
		slog.InfoContext(ctx, "answered from knowledge base",
			"knowledge_id", top.ID, "customer_id", caller.CustomerID, "score", results[0].Score)
		return model.AgentResponse{
			Response:      top.Answer,
			KnowledgeUsed: &top.ID,
		}, nil
	}

	if r.matcher != nil {
		res, err := r.matcher.Match(ctx, question)
		if err != nil {
			slog.WarnContext(ctx, "matcher failed, escalating", "customer_id", caller.CustomerID, "err", err)
			return r.escalate(ctx, question, caller, callContext, fallbackMessage)
		}
		if !res.Escalate && res.Response != "" {
			slog.InfoContext(ctx, "answered by matcher", "customer_id", caller.CustomerID)
			return model.AgentResponse{Response: res.Response}, nil
		}
	}

	return r.escalate(ctx, question, caller, callContext, DeferralMessage)
}

// escalate creates a pending help request, announces it, and returns the
// deferral response.
func (r *Resolver) escalate(ctx context.Context, question string, caller Caller, callContext map[string]string, message string) (model.AgentResponse, error) {
	req := model.NewHelpRequest(question, caller.CustomerID, caller.CustomerPhone, caller.CustomerName, callContext)
	if err := r.requests.Create(ctx, req); err != nil {
		return model.AgentResponse{}, fmt.Errorf("creating help request: %w", err)
	}

	r.bus.Publish(bus.Event{
		Type:       bus.EventNewHelpRequest,
		RequestID:  req.ID,
		Question:   question,
		CustomerID: caller.CustomerID,
	})

	slog.InfoContext(ctx, "escalated question to supervisor",
		"request_id", req.ID, "customer_id", caller.CustomerID)

	return model.AgentResponse{
		Response:      message,
		NeedsHelp:     true,
		HelpRequestID: &req.ID,
	}, nil
}

// Resolve applies a supervisor's answer to a pending help request: the
// request transitions to resolved and the answer is learned into the
// knowledge base in one transaction, then a resolved event is published and
// the customer follow-up is triggered. Concurrent resolutions of the same
// request serialize in the store; losers observe store.ErrInvalidState. A
// failed knowledge write rolls the transition back, so the request stays
// pending and the resolution can be retried.
func (r *Resolver) Resolve(ctx context.Context, requestID, supervisorAnswer, supervisorID string) (*model.HelpRequest, error) {
	req, err := r.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	entry := model.NewKnowledgeEntry(req.Question, supervisorAnswer, model.KnowledgeSourceSupervisor, learnedTags)
	updated, err := r.requests.ResolveAndLearn(ctx, requestID, supervisorAnswer, supervisorID, entry)
	if err != nil {
		return nil, err
	}

	r.bus.Publish(bus.Event{Type: bus.EventRequestResolved, RequestID: requestID})

	r.followUp(ctx, updated, supervisorAnswer)

	slog.InfoContext(ctx, "resolved help request",
		"request_id", requestID, "supervisor_id", supervisorID, "knowledge_id", entry.ID)
	return updated, nil
}

// followUp simulates calling the customer back with the supervisor's answer.
// In production this would send an SMS or place an outbound call.
func (r *Resolver) followUp(ctx context.Context, req *model.HelpRequest, answer string) {
	slog.InfoContext(ctx, "customer follow-up",
		"customer_id", req.CustomerID,
		"customer_phone", req.CustomerPhone,
		"question", req.Question,
		"answer", answer)
}
