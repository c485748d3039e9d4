package external

import (
	"fmt"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

// HintKind says how an action hint should be acted on.
type HintKind string

const (
	// HintSkill names an orchestrator skill to invoke.
	HintSkill HintKind = "skill"

	// HintManual means no skill applies; delegate to the agent role.
	HintManual HintKind = "manual"
)

// ActionHint tells the orchestrator what to do for one step.
type ActionHint struct {
	Kind  HintKind `json:"kind"`
	Skill string   `json:"skill,omitempty"`
	Agent string   `json:"agent"`

	// Tool is the automation tool suggested by the step, when any.
	Tool string `json:"tool,omitempty"`

	Instruction string `json:"instruction"`
}

// roleSkills maps agent roles to default orchestrator skills, used when
// a step carries no explicit skill hint.
var roleSkills = map[string]string{
	"architect": "system-design",
	"developer": "implement",
	"reviewer":  "code-review",
	"tester":    "run-tests",
	"devops":    "release-ops",
	"analyst":   "root-cause",
	"writer":    "write-docs",
}

// ResolveAction maps a step to an action hint. Pure: no I/O, no state.
//
// Resolution order: the step's own skill hint verbatim, then the static
// role table, then a manual delegation instruction.
func ResolveAction(step *workflow.StepState) ActionHint {
	hint := ActionHint{Agent: step.Agent, Tool: step.AutomationHint}

	switch {
	case step.SkillHint != "":
		hint.Kind = HintSkill
		hint.Skill = step.SkillHint
	default:
		if skill, ok := roleSkills[step.Agent]; ok {
			hint.Kind = HintSkill
			hint.Skill = skill
		} else {
			hint.Kind = HintManual
		}
	}

	switch hint.Kind {
	case HintSkill:
		hint.Instruction = fmt.Sprintf("invoke skill %q as %s: %s", hint.Skill, step.Agent, step.Action)
	default:
		hint.Instruction = fmt.Sprintf("delegate to agent role %q: %s", step.Agent, step.Action)
	}
	return hint
}
