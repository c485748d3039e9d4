package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/store"
	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

// Exercises the shipped bugfix pipeline end to end: its checkpoint on
// step 2 is rejected once, retried, and the run then advances to
// completion.
func TestBugfix_EndToEnd(t *testing.T) {
	st := store.New(t.TempDir(), nil)
	svc, err := NewService(st, catalog.Default(), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartRequest{
		WorkflowType: "bugfix",
		Context:      map[string]string{"task": "crash on empty input"},
	})
	require.NoError(t, err)
	require.True(t, started.OK())
	assert.Equal(t, 1, started.CurrentStep)
	assert.Equal(t, 6, started.TotalSteps)
	assert.Equal(t, workflow.StatusRunning, started.Status)

	// Step 1 done; step 2 carries the root-cause checkpoint.
	res, err := svc.Advance(ctx, "reproduced")
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentStep)
	assert.Equal(t, workflow.StatusWaitingCheckpoint, res.Status)

	res, err = svc.Reject(ctx, "cause unclear")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFailedStep, res.Status)
	assert.Equal(t, workflow.StepFailed, res.Step.Status)

	res, err = svc.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, res.Status)
	assert.Equal(t, 2, res.CurrentStep)

	// A retried checkpoint step no longer gates, so advance carries
	// through steps 2..5 and the final advance on step 6 completes.
	for want := 3; want <= 6; want++ {
		res, err = svc.Advance(ctx, "")
		require.NoError(t, err)
		require.True(t, res.OK())
		assert.Equal(t, want, res.CurrentStep)
		assert.Equal(t, workflow.StatusRunning, res.Status)
	}

	res, err = svc.Advance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, res.Status)

	_, ok := st.LoadActive()
	assert.False(t, ok)

	h := st.LoadHistory(started.WorkflowID)
	assert.Equal(t, []workflow.EventType{
		workflow.EventStart,
		workflow.EventAdvance,
		workflow.EventCheckpointRejected,
		workflow.EventRetry,
		workflow.EventAdvance,
		workflow.EventAdvance,
		workflow.EventAdvance,
		workflow.EventAdvance,
		workflow.EventAdvance,
		workflow.EventComplete,
	}, eventTypes(h))
}
