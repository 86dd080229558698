package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tinkerloft/frontdesk/internal/model"
)

func TestNewHelpRequest_Defaults(t *testing.T) {
	req := model.NewHelpRequest("Do you offer wedding packages?", "cust-1", "+15550100", "Dana", nil)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.False(t, req.CreatedAt.IsZero())
	assert.Nil(t, req.ResolvedAt)
	assert.Nil(t, req.SupervisorAnswer)
	assert.Nil(t, req.SupervisorID)
}

func TestHelpRequest_Answered(t *testing.T) {
	req := model.NewHelpRequest("q", "cust-1", "", "", nil)
	assert.False(t, req.Answered())

	req.Status = model.RequestStatusResolved
	assert.False(t, req.Answered(), "resolved without answer violates the invariant")

	req.SupervisorAnswer = model.StringPtr("Yes, starting at $500")
	assert.True(t, req.Answered())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, model.ValidStatus(model.RequestStatusPending))
	assert.True(t, model.ValidStatus(model.RequestStatusResolved))
	assert.True(t, model.ValidStatus(model.RequestStatusUnresolved))
	assert.False(t, model.ValidStatus("open"))
}

func TestNewKnowledgeEntry_Defaults(t *testing.T) {
	entry := model.NewKnowledgeEntry("What are your hours?", "9-8 Mon-Sat", model.KnowledgeSourceManual, []string{"hours"})

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, int64(0), entry.UsageCount)
	assert.Equal(t, model.KnowledgeSourceManual, entry.Source)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestNewCallSession_Defaults(t *testing.T) {
	sess := model.NewCallSession("cust-1", "+15550100", "Dana")

	assert.Contains(t, sess.CallID, "call-")
	assert.Equal(t, model.CallStatusActive, sess.Status)
	assert.Empty(t, sess.Transcript)
	assert.Nil(t, sess.EndedAt)
}
