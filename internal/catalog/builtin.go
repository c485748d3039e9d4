package catalog

import "time"

// builtins returns the shipped workflow definitions.
//
// Checkpoints sit where a human decision is genuinely required: design
// sign-off, root-cause confirmation, anything that publishes. Optional
// steps are ones a small change can reasonably skip.
func builtins() []*Definition {
	return []*Definition{
		{
			Name:            "feature",
			Description:     "Design, implement and land a new feature",
			RequiredModules: []string{"workflow"},
			RecommendedCapabilities: []string{
				"code-search", "test-runner",
			},
			TeamMode: "pair",
			Pipeline: []Step{
				{Order: 1, Agent: "analyst", Action: "Clarify requirements and acceptance criteria", SkillHint: "requirements-intake"},
				{Order: 2, Agent: "architect", Action: "Write a short design note covering approach and risks", Checkpoint: "design-approval"},
				{Order: 3, Agent: "developer", Action: "Implement the feature behind the agreed interfaces", Retryable: true, Timeout: 2 * time.Hour},
				{Order: 4, Agent: "tester", Action: "Add tests and run the full suite", AutomationHint: "test-runner", Retryable: true},
				{Order: 5, Agent: "reviewer", Action: "Review the diff against the design note", Checkpoint: "pre-merge-review"},
				{Order: 6, Agent: "developer", Action: "Merge and verify the mainline build", AutomationHint: "ci-status"},
			},
		},
		{
			Name:            "bugfix",
			Description:     "Reproduce, diagnose and fix a reported defect",
			RequiredModules: []string{"workflow"},
			Pipeline: []Step{
				{Order: 1, Agent: "analyst", Action: "Reproduce the bug and capture a failing case", Retryable: true},
				{Order: 2, Agent: "analyst", Action: "Identify the root cause", Checkpoint: "root-cause-confirmed", SkillHint: "root-cause-analysis"},
				{Order: 3, Agent: "developer", Action: "Write a regression test that fails", Retryable: true},
				{Order: 4, Agent: "developer", Action: "Apply the fix", Retryable: true},
				{Order: 5, Agent: "tester", Action: "Run the regression test and the full suite", AutomationHint: "test-runner"},
				{Order: 6, Agent: "reviewer", Action: "Review fix scope and close out the report", Optional: true},
			},
		},
		{
			Name:            "refactor",
			Description:     "Restructure existing code without changing behavior",
			RequiredModules: []string{"workflow"},
			TeamMode:        "solo",
			Pipeline: []Step{
				{Order: 1, Agent: "analyst", Action: "Map the affected code and its callers", SkillHint: "code-survey"},
				{Order: 2, Agent: "architect", Action: "Agree the target shape and migration order", Checkpoint: "refactor-plan"},
				{Order: 3, Agent: "developer", Action: "Refactor in behavior-preserving increments", Retryable: true, Timeout: 4 * time.Hour},
				{Order: 4, Agent: "tester", Action: "Verify the suite is green and coverage held", AutomationHint: "test-runner"},
				{Order: 5, Agent: "reviewer", Action: "Review for accidental behavior change", Optional: true},
			},
		},
		{
			Name:            "release",
			Description:     "Cut, verify and publish a release",
			RequiredModules: []string{"workflow", "external-sync"},
			RecommendedCapabilities: []string{
				"changelog", "ci-status",
			},
			Pipeline: []Step{
				{Order: 1, Agent: "devops", Action: "Freeze the branch and tag a release candidate", AutomationHint: "git-tag"},
				{Order: 2, Agent: "writer", Action: "Draft the changelog from merged work", Checkpoint: "changelog-signoff", SkillHint: "changelog-draft"},
				{Order: 3, Agent: "tester", Action: "Run the release verification suite", AutomationHint: "test-runner", Retryable: true, Timeout: time.Hour},
				{Order: 4, Agent: "devops", Action: "Build and stage the artifacts", Retryable: true},
				{Order: 5, Agent: "devops", Action: "Publish the release", Checkpoint: "publish-approval"},
				{Order: 6, Agent: "writer", Action: "Announce and update docs links", Optional: true},
			},
		},
		{
			Name:            "hotfix",
			Description:     "Ship an urgent fix to production",
			RequiredModules: []string{"workflow"},
			TeamMode:        "solo",
			Pipeline: []Step{
				{Order: 1, Agent: "analyst", Action: "Confirm impact and pick the smallest viable fix"},
				{Order: 2, Agent: "developer", Action: "Apply the fix on the release branch", Retryable: true},
				{Order: 3, Agent: "reviewer", Action: "Review the diff under incident rules", Checkpoint: "hotfix-review"},
				{Order: 4, Agent: "devops", Action: "Deploy and watch error rates", AutomationHint: "deploy", Timeout: 30 * time.Minute},
			},
		},
		{
			Name:        "docs",
			Description: "Write or update documentation",
			Pipeline: []Step{
				{Order: 1, Agent: "writer", Action: "Outline the pages to add or change", SkillHint: "doc-outline"},
				{Order: 2, Agent: "writer", Action: "Write the content", Retryable: true},
				{Order: 3, Agent: "reviewer", Action: "Proofread and publish", Optional: true},
			},
		},
	}
}
