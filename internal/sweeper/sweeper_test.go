package sweeper_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinkerloft/frontdesk/internal/model"
	"github.com/tinkerloft/frontdesk/internal/store"
	"github.com/tinkerloft/frontdesk/internal/sweeper"
)

func newRequestStore(t *testing.T) *store.RequestStore {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "frontdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewRequestStore(db)
}

func createAged(t *testing.T, rs *store.RequestStore, question string, age time.Duration) model.HelpRequest {
	t.Helper()
	req := model.NewHelpRequest(question, "cust-1", "", "", nil)
	req.CreatedAt = model.NewTimestamp(time.Now().UTC().Add(-age))
	require.NoError(t, rs.Create(context.Background(), req))
	return req
}

func TestSweep_AgesOutOnlyStaleRequests(t *testing.T) {
	ctx := context.Background()
	rs := newRequestStore(t)

	stale := createAged(t, rs, "old question", 72*time.Hour)
	fresh := createAged(t, rs, "new question", time.Hour)

	s := sweeper.New(rs, nil, 48*time.Hour, time.Hour)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := rs.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusUnresolved, got.Status)

	got, err = rs.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, got.Status)
}

func TestSweep_LeavesResolvedRequestsAlone(t *testing.T) {
	ctx := context.Background()
	rs := newRequestStore(t)

	req := createAged(t, rs, "old but answered", 72*time.Hour)
	_, err := rs.Resolve(ctx, req.ID, "answer", "sup-1")
	require.NoError(t, err)

	s := sweeper.New(rs, nil, 48*time.Hour, time.Hour)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := rs.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusResolved, got.Status)
}

func TestRun_SweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	rs := newRequestStore(t)
	createAged(t, rs, "old question", 72*time.Hour)

	s := sweeper.New(rs, nil, 48*time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// The initial sweep runs before the first tick.
	assert.Eventually(t, func() bool {
		counts, err := rs.Counts(context.Background())
		return err == nil && counts.Unresolved == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
