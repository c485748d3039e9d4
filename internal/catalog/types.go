package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDefinition indicates a definition failed validation.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// Step is a single unit of work in a pipeline. Order is 1-based and
// contiguous within a definition.
type Step struct {
	Order int `json:"order"`

	// Agent is the role expected to perform the step.
	Agent string `json:"agent"`

	// Action describes the work in human terms.
	Action string `json:"action"`

	// Checkpoint names a gate that requires explicit approval before the
	// pipeline may continue past this step. Empty means no gate.
	Checkpoint string `json:"checkpoint,omitempty"`

	// Optional steps may be skipped while the instance is running.
	Optional bool `json:"optional,omitempty"`

	// SkillHint is surfaced verbatim to the external orchestrator when
	// set; otherwise the agent role is mapped through a static table.
	SkillHint string `json:"skill_hint,omitempty"`

	// AutomationHint names a host tool that can perform the step.
	AutomationHint string `json:"automation_hint,omitempty"`

	// Timeout is advisory metadata only; the engine never enforces it.
	Timeout time.Duration `json:"timeout,omitempty"`

	Retryable bool `json:"retryable,omitempty"`
}

// Definition is a named workflow template. Never mutated after load.
type Definition struct {
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	RequiredModules         []string `json:"required_modules,omitempty"`
	Pipeline                []Step   `json:"pipeline"`
	RecommendedCapabilities []string `json:"recommended_capabilities,omitempty"`
	TeamMode                string   `json:"team_mode,omitempty"`
}

// Validate checks the structural invariants: a non-empty pipeline whose
// Order values form the contiguous sequence 1..len(pipeline), and
// non-empty name, agent and action fields.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(d.Pipeline) == 0 {
		return fmt.Errorf("%w: %s: pipeline is empty", ErrInvalidDefinition, d.Name)
	}
	for i, step := range d.Pipeline {
		if step.Order != i+1 {
			return fmt.Errorf("%w: %s: step %d has order %d, want %d",
				ErrInvalidDefinition, d.Name, i, step.Order, i+1)
		}
		if step.Agent == "" {
			return fmt.Errorf("%w: %s: step %d has no agent", ErrInvalidDefinition, d.Name, step.Order)
		}
		if step.Action == "" {
			return fmt.Errorf("%w: %s: step %d has no action", ErrInvalidDefinition, d.Name, step.Order)
		}
	}
	return nil
}

// Step returns the step with the given 1-based order.
func (d *Definition) Step(order int) (*Step, bool) {
	if order < 1 || order > len(d.Pipeline) {
		return nil, false
	}
	return &d.Pipeline[order-1], true
}
