package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/external"
	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders an engine result as text, or JSON with --json.
func printResult(res *workflow.Result) error {
	if jsonOutput {
		return printJSON(res)
	}

	switch res.Outcome {
	case workflow.OutcomeDenied:
		fmt.Printf("denied: %s\n", res.Reason)
		if res.Guidance != "" {
			fmt.Printf("  %s\n", res.Guidance)
		}
		return nil
	case workflow.OutcomeSetupRequired:
		if res.Reason != "" {
			fmt.Println(res.Reason)
		}
		fmt.Println(res.Guidance)
		return nil
	}

	fmt.Printf("%s  [%s]  %s\n", res.WorkflowID, res.Status, res.Guidance)
	if res.Step != nil && !res.Status.Terminal() {
		hint := external.ResolveAction(res.Step)
		fmt.Printf("  next action: %s\n", hint.Instruction)
		if hint.Tool != "" {
			fmt.Printf("  suggested tool: %s\n", hint.Tool)
		}
	}
	return nil
}

func printList(entries []workflow.ListEntry) error {
	if jsonOutput {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("no workflows yet")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%-28s %-10s %-20s step %d/%d  %s\n",
			e.ID, e.WorkflowType, e.Status, e.CurrentStep, e.TotalSteps, e.UpdatedAt)
	}
	return nil
}

func printHistory(h *workflow.History) error {
	if jsonOutput {
		return printJSON(h)
	}
	if len(h.Events) == 0 {
		fmt.Println("no history")
		return nil
	}
	fmt.Printf("history for %s:\n", h.WorkflowID)
	for _, ev := range h.Events {
		line := fmt.Sprintf("  %s  %-20s", ev.Timestamp.Format(time.RFC3339), ev.Type)
		if step, ok := ev.Data["step"]; ok {
			line += fmt.Sprintf(" step=%v", step)
		}
		if reason, ok := ev.Data["reason"]; ok {
			line += fmt.Sprintf(" reason=%q", reason)
		}
		fmt.Println(line)
	}
	return nil
}

func printTypes(c *catalog.Catalog) error {
	if jsonOutput {
		return printJSON(c.Definitions())
	}
	for _, def := range c.Definitions() {
		fmt.Printf("%-10s %s (%d steps)\n", def.Name, def.Description, len(def.Pipeline))
		for _, step := range def.Pipeline {
			marker := " "
			if step.Checkpoint != "" {
				marker = "*"
			}
			fmt.Printf("  %s %d. [%s] %s\n", marker, step.Order, step.Agent, step.Action)
		}
	}
	return nil
}
