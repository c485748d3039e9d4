package workflow

// Outcome says whether a requested action took effect.
type Outcome string

const (
	// OutcomeOK means the action was applied and persisted.
	OutcomeOK Outcome = "ok"

	// OutcomeDenied means the action is not valid from the current
	// status. Nothing was changed; Reason explains what would be valid.
	OutcomeDenied Outcome = "denied"

	// OutcomeSetupRequired means no workflow state exists to act on
	// (nothing active, or the project has no configuration).
	OutcomeSetupRequired Outcome = "setup_required"
)

// Result is the structured answer to every engine operation. It carries
// enough state for a presentation layer to render text or tables without
// re-reading anything from disk.
type Result struct {
	Outcome Outcome `json:"outcome"`

	WorkflowID   string `json:"workflow_id,omitempty"`
	WorkflowType string `json:"workflow_type,omitempty"`
	Status       Status `json:"status,omitempty"`
	CurrentStep  int    `json:"current_step,omitempty"`
	TotalSteps   int    `json:"total_steps,omitempty"`

	// Step is the current step after the action; NextStep the one after
	// it, when any remains.
	Step     *StepState `json:"step,omitempty"`
	NextStep *StepState `json:"next_step,omitempty"`

	// Guidance tells the actor what to do next in human terms.
	Guidance string `json:"guidance,omitempty"`

	// Reason is set on denied results: why the action could not proceed
	// and which actions are valid instead.
	Reason string `json:"reason,omitempty"`
}

// OK reports whether the action was applied.
func (r *Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// ListEntry is one row of a List result.
type ListEntry struct {
	ID           string `json:"id"`
	WorkflowType string `json:"workflow_type"`
	Status       Status `json:"status"`
	CurrentStep  int    `json:"current_step"`
	TotalSteps   int    `json:"total_steps"`
	UpdatedAt    string `json:"updated_at"`
}
