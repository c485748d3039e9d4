package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/engine"
	"github.com/fyrsmithlabs/flowd/internal/store"
	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

func newTestEngine(t *testing.T) *engine.Service {
	t.Helper()
	svc, err := engine.NewService(store.New(t.TempDir(), nil), catalog.Default(), nil, nil)
	require.NoError(t, err)
	return svc
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine service is required")
}

func TestNewServer_Defaults(t *testing.T) {
	s, err := NewServer(nil, newTestEngine(t))
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestToOutput_AttachesHintForRunningStep(t *testing.T) {
	res := &workflow.Result{
		Outcome:      workflow.OutcomeOK,
		WorkflowID:   "feature-20260827-aaaa",
		WorkflowType: "feature",
		Status:       workflow.StatusRunning,
		CurrentStep:  1,
		TotalSteps:   6,
		Step: &workflow.StepState{
			Step:   catalog.Step{Order: 1, Agent: "analyst", Action: "clarify", SkillHint: "requirements-intake"},
			Status: workflow.StepRunning,
		},
	}

	out := toOutput(res)
	assert.Equal(t, "ok", out.Outcome)
	require.NotNil(t, out.Step)
	assert.Equal(t, "running", out.Step.Status)
	require.NotNil(t, out.Hint)
	assert.Equal(t, "skill", out.Hint.Kind)
	assert.Equal(t, "requirements-intake", out.Hint.Skill)
}

func TestToOutput_NoHintWhenDeniedOrTerminal(t *testing.T) {
	denied := &workflow.Result{
		Outcome: workflow.OutcomeDenied,
		Status:  workflow.StatusWaitingCheckpoint,
		Step: &workflow.StepState{
			Step:   catalog.Step{Order: 1, Agent: "architect", Action: "plan", Checkpoint: "x"},
			Status: workflow.StepWaitingCheckpoint,
		},
		Reason: "not now",
	}
	assert.Nil(t, toOutput(denied).Hint)
	assert.Equal(t, "not now", toOutput(denied).Reason)

	completed := &workflow.Result{
		Outcome: workflow.OutcomeOK,
		Status:  workflow.StatusCompleted,
		Step: &workflow.StepState{
			Step:   catalog.Step{Order: 2, Agent: "developer", Action: "done"},
			Status: workflow.StepCompleted,
		},
	}
	assert.Nil(t, toOutput(completed).Hint)
}
