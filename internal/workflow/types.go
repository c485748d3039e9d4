package workflow

import (
	"time"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
)

// Status is the lifecycle state of a workflow instance.
type Status string

const (
	StatusRunning           Status = "running"
	StatusWaitingCheckpoint Status = "waiting_checkpoint"
	StatusFailedStep        Status = "failed_step"
	StatusCompleted         Status = "completed"
	StatusAborted           Status = "aborted"
)

// Terminal reports whether no further action may transition the instance.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// StepStatus is the state of a single pipeline step within an instance.
type StepStatus string

const (
	StepPending           StepStatus = "pending"
	StepRunning           StepStatus = "running"
	StepCompleted         StepStatus = "completed"
	StepFailed            StepStatus = "failed"
	StepSkipped           StepStatus = "skipped"
	StepWaitingCheckpoint StepStatus = "waiting_checkpoint"
)

// GuardLevel tells the hook layer how strictly to police tool calls that
// are not part of the workflow. The engine carries it but never acts on
// it: reads and abort are always allowed.
type GuardLevel string

const (
	GuardBlock GuardLevel = "block"
	GuardWarn  GuardLevel = "warn"
	GuardOff   GuardLevel = "off"
)

// StepState is a runtime copy of a catalog step plus its progress. The
// Steps slice of an instance is created once at start and never reordered
// or resized.
type StepState struct {
	catalog.Step

	Status     StepStatus `json:"status"`
	RetryCount int        `json:"retry_count"`
}

// InstanceConfig is the per-instance behavior configuration, snapshotted
// from tool config at start time.
type InstanceConfig struct {
	GuardLevel     GuardLevel `json:"guard_level"`
	AutoAdvance    bool       `json:"auto_advance"`
	SyncToExternal bool       `json:"sync_to_external"`
	MaxRetries     int        `json:"max_retries"`
	HistoryEnabled bool       `json:"history_enabled"`
}

// DefaultInstanceConfig returns the defaults applied when the caller
// provides nothing.
func DefaultInstanceConfig() InstanceConfig {
	return InstanceConfig{
		GuardLevel:     GuardWarn,
		SyncToExternal: true,
		MaxRetries:     3,
		HistoryEnabled: true,
	}
}

// Instance is one running (or finished) execution of a workflow
// definition. It is the aggregate the store persists as state.json.
type Instance struct {
	ID           string `json:"id"`
	WorkflowType string `json:"workflow_type"`
	Status       Status `json:"status"`

	// CurrentStep is a 1-based index into Steps.
	CurrentStep int `json:"current_step"`
	TotalSteps  int `json:"total_steps"`

	// Context carries caller-supplied metadata. Documented keys: "task",
	// "branch", "ticket". Unknown keys are preserved verbatim.
	Context map[string]string `json:"context,omitempty"`

	Steps  []StepState    `json:"steps"`
	Config InstanceConfig `json:"config"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Current returns the step at CurrentStep, or nil if out of range.
func (in *Instance) Current() *StepState {
	if in.CurrentStep < 1 || in.CurrentStep > len(in.Steps) {
		return nil
	}
	return &in.Steps[in.CurrentStep-1]
}

// Next returns the step after CurrentStep, or nil if the instance is on
// its last step.
func (in *Instance) Next() *StepState {
	if in.CurrentStep < 1 || in.CurrentStep >= len(in.Steps) {
		return nil
	}
	return &in.Steps[in.CurrentStep]
}

// Terminal reports whether the instance is finished.
func (in *Instance) Terminal() bool {
	return in.Status.Terminal()
}

// ActivePointer is the singleton marking which instance is active for a
// project. An empty ActiveWorkflowID means none.
type ActivePointer struct {
	ActiveWorkflowID string    `json:"active_workflow_id"`
	StartedAt        time.Time `json:"started_at"`
}
