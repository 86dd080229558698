package agent_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinkerloft/frontdesk/internal/agent"
	"github.com/tinkerloft/frontdesk/internal/bus"
	"github.com/tinkerloft/frontdesk/internal/model"
	"github.com/tinkerloft/frontdesk/internal/store"
)

// fakeMatcher is a test double for the language-model capability.
type fakeMatcher struct {
	result agent.MatchResult
	err    error
	calls  int
}

func (m *fakeMatcher) Match(_ context.Context, _ string) (agent.MatchResult, error) {
	m.calls++
	return m.result, m.err
}

type fixture struct {
	requests  *store.RequestStore
	knowledge *store.KnowledgeStore
	bus       *bus.Bus
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "frontdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return fixture{
		requests:  store.NewRequestStore(db),
		knowledge: store.NewKnowledgeStore(db),
		bus:       bus.New(),
	}
}

func expectEvent(t *testing.T, sub *bus.Subscriber, kind bus.EventType) bus.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		require.Equal(t, kind, ev.Type)
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no %s event published", kind)
		return bus.Event{}
	}
}

func TestAnswer_KnowledgeHit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry := model.NewKnowledgeEntry("What are your hours?", "Monday-Saturday 9 AM - 8 PM.", model.KnowledgeSourceManual, []string{"hours"})
	require.NoError(t, f.knowledge.Add(ctx, entry))

	r := agent.NewResolver(f.requests, f.knowledge, f.bus, nil)
	resp, err := r.Answer(ctx, "What are your hours?", agent.Caller{CustomerID: "cust-1"}, nil)
	require.NoError(t, err)

	assert.False(t, resp.NeedsHelp)
	assert.Equal(t, entry.Answer, resp.Response)
	require.NotNil(t, resp.KnowledgeUsed)
	assert.Equal(t, entry.ID, *resp.KnowledgeUsed)
	assert.Nil(t, resp.HelpRequestID)

	// Usage count increases by exactly one.
	got, err := f.knowledge.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)

	// No help request was created.
	pending, err := f.requests.List(ctx, string(model.RequestStatusPending), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAnswer_NoMatch_Escalates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.bus.Subscribe()
	defer sub.Close()

	r := agent.NewResolver(f.requests, f.knowledge, f.bus, nil)
	resp, err := r.Answer(ctx, "Do you offer wedding packages?", agent.Caller{CustomerID: "cust-1", CustomerPhone: "+15550100"}, map[string]string{"call_id": "call-1"})
	require.NoError(t, err)

	assert.True(t, resp.NeedsHelp)
	assert.Equal(t, agent.DeferralMessage, resp.Response)
	require.NotNil(t, resp.HelpRequestID)
	assert.Nil(t, resp.KnowledgeUsed)

	req, err := f.requests.Get(ctx, *resp.HelpRequestID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, "Do you offer wedding packages?", req.Question)
	assert.Equal(t, "call-1", req.Context["call_id"])

	ev := expectEvent(t, sub, bus.EventNewHelpRequest)
	assert.Equal(t, req.ID, ev.RequestID)
	assert.Equal(t, "cust-1", ev.CustomerID)
	assert.Equal(t, req.Question, ev.Question)
}

func TestAnswer_MatcherAnswersDirectly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	matcher := &fakeMatcher{result: agent.MatchResult{Response: "Yes, we have free parking in the rear."}}
	r := agent.NewResolver(f.requests, f.knowledge, f.bus, matcher)

	resp, err := r.Answer(ctx, "Is there parking?", agent.Caller{CustomerID: "cust-1"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, matcher.calls)
	assert.False(t, resp.NeedsHelp)
	assert.Equal(t, "Yes, we have free parking in the rear.", resp.Response)

	all, err := f.requests.List(ctx, model.StatusAll, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAnswer_MatcherSignalsEscalation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	matcher := &fakeMatcher{result: agent.MatchResult{Escalate: true}}
	r := agent.NewResolver(f.requests, f.knowledge, f.bus, matcher)

	resp, err := r.Answer(ctx, "Can I book Sarah for a private event?", agent.Caller{CustomerID: "cust-1"}, nil)
	require.NoError(t, err)

	assert.True(t, resp.NeedsHelp)
	assert.Equal(t, agent.DeferralMessage, resp.Response)
	require.NotNil(t, resp.HelpRequestID)
}

func TestAnswer_MatcherError_FallsBackToEscalation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	matcher := &fakeMatcher{err: errors.New("api unavailable")}
	r := agent.NewResolver(f.requests, f.knowledge, f.bus, matcher)

	resp, err := r.Answer(ctx, "some question", agent.Caller{CustomerID: "cust-1"}, nil)
	require.NoError(t, err)

	assert.True(t, resp.NeedsHelp)
	require.NotNil(t, resp.HelpRequestID)
	assert.NotEqual(t, agent.DeferralMessage, resp.Response, "matcher failure uses the trouble message")
}

func TestResolve_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.bus.Subscribe()
	defer sub.Close()

	r := agent.NewResolver(f.requests, f.knowledge, f.bus, nil)

	// Escalate first.
	resp, err := r.Answer(ctx, "Do you offer wedding packages?", agent.Caller{CustomerID: "cust-1"}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.HelpRequestID)
	expectEvent(t, sub, bus.EventNewHelpRequest)

	// Supervisor resolves.
	updated, err := r.Resolve(ctx, *resp.HelpRequestID, "Yes, starting at $500", "sup-1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusResolved, updated.Status)
	assert.True(t, updated.Answered())

	ev := expectEvent(t, sub, bus.EventRequestResolved)
	assert.Equal(t, *resp.HelpRequestID, ev.RequestID)

	// Exactly one learned entry with the original question and the answer.
	entries, err := f.knowledge.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.KnowledgeSourceSupervisor, entries[0].Source)
	assert.Equal(t, "Do you offer wedding packages?", entries[0].Question)
	assert.Equal(t, "Yes, starting at $500", entries[0].Answer)

	// Asking the same question again is now answered from knowledge.
	again, err := r.Answer(ctx, "Do you offer wedding packages?", agent.Caller{CustomerID: "cust-2"}, nil)
	require.NoError(t, err)
	assert.False(t, again.NeedsHelp)
	assert.Equal(t, "Yes, starting at $500", again.Response)
	require.NotNil(t, again.KnowledgeUsed)
	assert.Equal(t, entries[0].ID, *again.KnowledgeUsed)
}

func TestResolve_UnknownID_CreatesNoKnowledge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r := agent.NewResolver(f.requests, f.knowledge, f.bus, nil)
	_, err := r.Resolve(ctx, "missing", "answer", "sup-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := f.knowledge.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestResolve_Twice_SecondFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r := agent.NewResolver(f.requests, f.knowledge, f.bus, nil)
	resp, err := r.Answer(ctx, "q", agent.Caller{CustomerID: "cust-1"}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.HelpRequestID)

	first, err := r.Resolve(ctx, *resp.HelpRequestID, "first answer", "sup-1")
	require.NoError(t, err)

	_, err = r.Resolve(ctx, *resp.HelpRequestID, "second answer", "sup-2")
	assert.ErrorIs(t, err, store.ErrInvalidState)

	// Stored state unchanged by the losing call, and only one entry learned.
	got, err := f.requests.Get(ctx, *resp.HelpRequestID)
	require.NoError(t, err)
	assert.Equal(t, *first.SupervisorAnswer, *got.SupervisorAnswer)

	n, err := f.knowledge.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
