package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/store"
	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

// capturingSync records every instance handed to it.
type capturingSync struct {
	calls []workflow.Status
	err   error
}

func (c *capturingSync) Sync(_ context.Context, inst *workflow.Instance) error {
	c.calls = append(c.calls, inst.Status)
	return c.err
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		&catalog.Definition{
			Name:        "mini",
			Description: "three plain steps",
			Pipeline: []catalog.Step{
				{Order: 1, Agent: "developer", Action: "one"},
				{Order: 2, Agent: "developer", Action: "two", Optional: true},
				{Order: 3, Agent: "reviewer", Action: "three"},
			},
		},
		&catalog.Definition{
			Name:        "gated",
			Description: "checkpoint on the first step",
			Pipeline: []catalog.Step{
				{Order: 1, Agent: "architect", Action: "plan", Checkpoint: "plan-approval"},
				{Order: 2, Agent: "developer", Action: "build"},
			},
		},
	)
}

func newTestService(t *testing.T) (*Service, *store.Store, *capturingSync) {
	t.Helper()
	st := store.New(t.TempDir(), nil)
	sync := &capturingSync{}
	svc, err := NewService(st, testCatalog(), sync, nil)
	require.NoError(t, err)
	return svc, st, sync
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, testCatalog(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")

	_, err = NewService(store.New(t.TempDir(), nil), nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog is required")
}

func TestStart_FirstStepRunning(t *testing.T) {
	svc, st, sync := newTestService(t)
	ctx := context.Background()

	res, err := svc.Start(ctx, StartRequest{
		WorkflowType: "mini",
		Context:      map[string]string{"task": "wire the thing"},
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusRunning, res.Status)
	assert.Equal(t, 1, res.CurrentStep)
	assert.Equal(t, 3, res.TotalSteps)
	require.NotNil(t, res.Step)
	assert.Equal(t, workflow.StepRunning, res.Step.Status)
	require.NotNil(t, res.NextStep)
	assert.Equal(t, 2, res.NextStep.Order)

	id, ok := st.LoadActive()
	require.True(t, ok)
	assert.Equal(t, res.WorkflowID, id)

	h := st.LoadHistory(id)
	require.Len(t, h.Events, 1)
	assert.Equal(t, workflow.EventStart, h.Events[0].Type)
	assert.Equal(t, "wire the thing", h.Events[0].Data["task"])

	assert.Equal(t, []workflow.Status{workflow.StatusRunning}, sync.calls)
}

func TestStart_CheckpointedFirstStepWaits(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Start(context.Background(), StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusWaitingCheckpoint, res.Status)
	assert.Equal(t, workflow.StepWaitingCheckpoint, res.Step.Status)
	assert.Contains(t, res.Guidance, "plan-approval")
}

func TestStart_SecondStartDenied(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)

	second, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeDenied, second.Outcome)
	assert.Contains(t, second.Reason, first.WorkflowID)
	assert.Equal(t, first.WorkflowID, second.WorkflowID, "denial names the existing instance")
}

func TestStart_UnknownTypeDenied(t *testing.T) {
	svc, st, _ := newTestService(t)

	res, err := svc.Start(context.Background(), StartRequest{WorkflowType: "yolo"})
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeDenied, res.Outcome)
	assert.Contains(t, res.Reason, `unknown workflow type "yolo"`)
	assert.Contains(t, res.Reason, "mini")

	_, ok := st.LoadActive()
	assert.False(t, ok)
}

func TestStart_StalePointerReplaced(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)
	_, err = svc.Abort(ctx, "changed my mind")
	require.NoError(t, err)

	// Point the singleton back at the aborted instance by hand.
	require.NoError(t, st.SaveActive(res.WorkflowID, time.Now()))

	again, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)
	require.True(t, again.OK())
	assert.NotEqual(t, res.WorkflowID, again.WorkflowID)
}

func TestAdvance_WalksToCompletion(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)

	res, err := svc.Advance(ctx, "done one")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, 2, res.CurrentStep)
	assert.Equal(t, workflow.StatusRunning, res.Status)

	res, err = svc.Advance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CurrentStep)

	res, err = svc.Advance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, res.Status)

	_, ok := st.LoadActive()
	assert.False(t, ok, "completion clears the active pointer")

	inst := st.LoadInstance(started.WorkflowID)
	require.NotNil(t, inst)
	for _, step := range inst.Steps {
		assert.Equal(t, workflow.StepCompleted, step.Status)
	}

	h := st.LoadHistory(started.WorkflowID)
	types := eventTypes(h)
	assert.Equal(t, []workflow.EventType{
		workflow.EventStart,
		workflow.EventAdvance,
		workflow.EventAdvance,
		workflow.EventAdvance,
		workflow.EventComplete,
	}, types)
}

func TestAdvance_NoActiveWorkflow(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Advance(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeSetupRequired, res.Outcome)
	assert.Contains(t, res.Guidance, "start")
}

func TestAdvance_DeniedOnCheckpoint(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)

	res, err := svc.Advance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeDenied, res.Outcome)
	assert.Contains(t, res.Reason, "approve")
	assert.Equal(t, workflow.StatusWaitingCheckpoint, res.Status)
	assert.Equal(t, 1, res.CurrentStep, "denial does not move the workflow")
}

func TestApprove_ClearsCheckpoint(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)

	res, err := svc.Approve(ctx, "looks right")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusRunning, res.Status)
	assert.Equal(t, 2, res.CurrentStep)

	h := st.LoadHistory(started.WorkflowID)
	types := eventTypes(h)
	assert.Equal(t, []workflow.EventType{
		workflow.EventStart,
		workflow.EventCheckpointApproved,
		workflow.EventCompleteStep,
	}, types)
	assert.Equal(t, "plan-approval", h.Events[1].Data["checkpoint"])
}

func TestApprove_DeniedWhileRunning(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)

	res, err := svc.Approve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeDenied, res.Outcome)
	assert.Contains(t, res.Reason, "approve requires a pending checkpoint")
}

func TestRejectRetry_Cycle(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)

	res, err := svc.Reject(ctx, "cause unclear")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusFailedStep, res.Status)
	assert.Equal(t, workflow.StepFailed, res.Step.Status)

	res, err = svc.Retry(ctx)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusRunning, res.Status)
	assert.Equal(t, workflow.StepRunning, res.Step.Status)
	assert.Equal(t, 1, res.Step.RetryCount)

	h := st.LoadHistory(started.WorkflowID)
	require.Len(t, h.Events, 3)
	assert.Equal(t, workflow.EventCheckpointRejected, h.Events[1].Type)
	assert.Equal(t, "cause unclear", h.Events[1].Data["reason"])
	assert.Equal(t, workflow.EventRetry, h.Events[2].Type)
}

func TestRetry_Exhaustion(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cfg := workflow.DefaultInstanceConfig()
	cfg.MaxRetries = 2
	started, err := svc.Start(ctx, StartRequest{WorkflowType: "gated", Config: &cfg})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.Reject(ctx, "no")
		require.NoError(t, err)
		res, err := svc.Retry(ctx)
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusRunning, res.Status, "retry %d stays within budget", i+1)
		// Back onto the checkpoint for the next rejection.
		inst := st.LoadInstance(started.WorkflowID)
		inst.Status = workflow.StatusWaitingCheckpoint
		inst.Current().Status = workflow.StepWaitingCheckpoint
		require.NoError(t, st.SaveInstance(inst))
	}

	_, err = svc.Reject(ctx, "still no")
	require.NoError(t, err)
	res, err := svc.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAborted, res.Status)

	_, ok := st.LoadActive()
	assert.False(t, ok, "exhaustion clears the active pointer")

	h := st.LoadHistory(started.WorkflowID)
	last := h.Events[len(h.Events)-1]
	assert.Equal(t, workflow.EventAbort, last.Type)
	assert.Contains(t, last.Data["reason"], "retries exhausted")
}

func TestSkip_FailedStep(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
	require.NoError(t, err)
	_, err = svc.Reject(ctx, "not worth gating")
	require.NoError(t, err)

	res, err := svc.Skip(ctx, "checkpoint waived")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusRunning, res.Status)
	assert.Equal(t, 2, res.CurrentStep)
}

func TestSkip_OptionalRunningStep(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)

	// Step 1 is not optional: skip denied.
	res, err := svc.Skip(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeDenied, res.Outcome)

	_, err = svc.Advance(ctx, "")
	require.NoError(t, err)

	// Step 2 is optional.
	res, err = svc.Skip(ctx, "small change")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, 3, res.CurrentStep)
	assert.Equal(t, workflow.StepRunning, res.Step.Status)
}

func TestAbort_FromEveryNonTerminalStatus(t *testing.T) {
	ctx := context.Background()

	setups := map[string]func(t *testing.T, svc *Service){
		"running": func(t *testing.T, svc *Service) {
			_, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
			require.NoError(t, err)
		},
		"waiting_checkpoint": func(t *testing.T, svc *Service) {
			_, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
			require.NoError(t, err)
		},
		"failed_step": func(t *testing.T, svc *Service) {
			_, err := svc.Start(ctx, StartRequest{WorkflowType: "gated"})
			require.NoError(t, err)
			_, err = svc.Reject(ctx, "no")
			require.NoError(t, err)
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			svc, st, _ := newTestService(t)
			setup(t, svc)

			res, err := svc.Abort(ctx, "operator abort")
			require.NoError(t, err)
			require.True(t, res.OK())
			assert.Equal(t, workflow.StatusAborted, res.Status)

			_, ok := st.LoadActive()
			assert.False(t, ok)
		})
	}
}

func TestTerminalInstance_IsImmutable(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.Advance(ctx, "")
		require.NoError(t, err)
	}

	// Re-point the singleton at the completed instance to simulate a
	// stale pointer.
	require.NoError(t, st.SaveActive(started.WorkflowID, time.Now()))

	actions := map[string]func() (*workflow.Result, error){
		"advance": func() (*workflow.Result, error) { return svc.Advance(ctx, "") },
		"approve": func() (*workflow.Result, error) { return svc.Approve(ctx, "") },
		"reject":  func() (*workflow.Result, error) { return svc.Reject(ctx, "x") },
		"retry":   func() (*workflow.Result, error) { return svc.Retry(ctx) },
		"skip":    func() (*workflow.Result, error) { return svc.Skip(ctx, "x") },
		"abort":   func() (*workflow.Result, error) { return svc.Abort(ctx, "x") },
	}

	for name, action := range actions {
		t.Run(name, func(t *testing.T) {
			res, err := action()
			require.NoError(t, err)
			assert.Equal(t, workflow.OutcomeDenied, res.Outcome)
			assert.Contains(t, res.Reason, "already completed")

			inst := st.LoadInstance(started.WorkflowID)
			assert.Equal(t, workflow.StatusCompleted, inst.Status)
			assert.Equal(t, 3, inst.CurrentStep)
		})
	}
}

func TestReads_AreIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := svc.Status(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, 1, res.CurrentStep)

		entries, err := svc.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, started.WorkflowID, entries[0].ID)

		h, err := svc.HistoryOf(ctx, "")
		require.NoError(t, err)
		assert.Len(t, h.Events, 1)
	}
}

func TestStatus_ByIDAndNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Status(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeSetupRequired, res.Outcome)

	started, err := svc.Start(ctx, StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)
	_, err = svc.Abort(ctx, "done with it")
	require.NoError(t, err)

	// Finished instances stay readable by id with no active pointer.
	res, err = svc.Status(ctx, started.WorkflowID)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, workflow.StatusAborted, res.Status)

	res, err = svc.Status(ctx, "ghost-20260101-zzzz")
	require.NoError(t, err)
	assert.Equal(t, workflow.OutcomeSetupRequired, res.Outcome)
	assert.Contains(t, res.Reason, "ghost-20260101-zzzz")
}

func TestHistoryDisabled_RecordsNothing(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cfg := workflow.DefaultInstanceConfig()
	cfg.HistoryEnabled = false
	started, err := svc.Start(ctx, StartRequest{WorkflowType: "mini", Config: &cfg})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "")
	require.NoError(t, err)

	h := st.LoadHistory(started.WorkflowID)
	assert.Empty(t, h.Events)
}

func TestSyncFailures_AreSwallowed(t *testing.T) {
	st := store.New(t.TempDir(), nil)
	sync := &capturingSync{err: assert.AnError}
	svc, err := NewService(st, testCatalog(), sync, nil)
	require.NoError(t, err)

	res, err := svc.Start(context.Background(), StartRequest{WorkflowType: "mini"})
	require.NoError(t, err)
	assert.True(t, res.OK(), "sync errors never affect the result")
	assert.Len(t, sync.calls, 1)
}

func eventTypes(h *workflow.History) []workflow.EventType {
	types := make([]workflow.EventType, len(h.Events))
	for i, ev := range h.Events {
		types[i] = ev.Type
	}
	return types
}
