package calls_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinkerloft/frontdesk/internal/calls"
	"github.com/tinkerloft/frontdesk/internal/model"
)

func TestRegistry_StartAndEnd(t *testing.T) {
	r := calls.NewRegistry()

	sess := r.Start("cust-1", "+15550100", "Dana")
	assert.Equal(t, model.CallStatusActive, sess.Status)
	assert.Equal(t, 1, r.ActiveCount())

	require.NoError(t, r.Append(sess.CallID, model.SpeakerCustomer, "What are your hours?"))
	require.NoError(t, r.Append(sess.CallID, model.SpeakerAgent, "9 AM to 8 PM."))

	ended, err := r.End(sess.CallID)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusCompleted, ended.Status)
	assert.NotNil(t, ended.EndedAt)
	assert.Len(t, ended.Transcript, 2)
	assert.Equal(t, model.SpeakerCustomer, ended.Transcript[0].Speaker)

	assert.Equal(t, 0, r.ActiveCount())
	logs := r.Logs(0)
	require.Len(t, logs, 1)
	assert.Equal(t, sess.CallID, logs[0].CallID)
}

func TestRegistry_UnknownCall(t *testing.T) {
	r := calls.NewRegistry()

	assert.ErrorIs(t, r.Append("missing", model.SpeakerCustomer, "hi"), calls.ErrCallNotFound)
	_, err := r.End("missing")
	assert.ErrorIs(t, err, calls.ErrCallNotFound)
	assert.ErrorIs(t, r.Hold("missing"), calls.ErrCallNotFound)
}

func TestRegistry_HoldAndResume(t *testing.T) {
	r := calls.NewRegistry()
	sess := r.Start("cust-1", "", "")

	require.NoError(t, r.Hold(sess.CallID))
	active := r.Active()
	require.Len(t, active, 1)
	assert.Equal(t, model.CallStatusOnHold, active[0].Status)

	require.NoError(t, r.Resume(sess.CallID))
	active = r.Active()
	assert.Equal(t, model.CallStatusActive, active[0].Status)
}

func TestRegistry_LogsLimit(t *testing.T) {
	r := calls.NewRegistry()

	var last string
	for i := 0; i < 5; i++ {
		sess := r.Start("cust", "", "")
		last = sess.CallID
		_, err := r.End(sess.CallID)
		require.NoError(t, err)
	}

	logs := r.Logs(2)
	require.Len(t, logs, 2)
	assert.Equal(t, last, logs[1].CallID, "limit keeps the most recent calls")
}
