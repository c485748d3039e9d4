package workflow

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
)

func TestNewID_Format(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	id := NewID("bugfix", now)
	assert.Regexp(t, regexp.MustCompile(`^bugfix-20260827-[0-9a-z]{4}$`), id)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusAborted.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.False(t, StatusWaitingCheckpoint.Terminal())
	assert.False(t, StatusFailedStep.Terminal())
}

func TestInstance_CurrentAndNext(t *testing.T) {
	in := &Instance{
		CurrentStep: 1,
		TotalSteps:  2,
		Steps: []StepState{
			{Step: catalog.Step{Order: 1, Agent: "a", Action: "first"}, Status: StepRunning},
			{Step: catalog.Step{Order: 2, Agent: "b", Action: "second"}, Status: StepPending},
		},
	}

	cur := in.Current()
	require.NotNil(t, cur)
	assert.Equal(t, 1, cur.Order)

	next := in.Next()
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Order)

	in.CurrentStep = 2
	assert.Equal(t, 2, in.Current().Order)
	assert.Nil(t, in.Next())

	in.CurrentStep = 3
	assert.Nil(t, in.Current())
}

func TestNewEvent_PopulatesID(t *testing.T) {
	now := time.Now()
	ev := NewEvent(EventRetry, now, map[string]any{"step": 2})
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventRetry, ev.Type)
	assert.Equal(t, now, ev.Timestamp)
	assert.Equal(t, 2, ev.Data["step"])
}

func TestDefaultInstanceConfig(t *testing.T) {
	cfg := DefaultInstanceConfig()
	assert.Equal(t, GuardWarn, cfg.GuardLevel)
	assert.True(t, cfg.SyncToExternal)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.AutoAdvance)
}
