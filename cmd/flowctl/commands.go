package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/config"
	"github.com/fyrsmithlabs/flowd/internal/engine"
)

var (
	startTask    string
	startContext []string
	actionNote   string
	actionReason string
	listLimit    int
)

func init() {
	startCmd.Flags().StringVar(&startTask, "task", "", "one-line description of the task")
	startCmd.Flags().StringArrayVar(&startContext, "context", nil, "extra context as key=value (repeatable)")
	advanceCmd.Flags().StringVar(&actionNote, "note", "", "note recorded with the step completion")
	approveCmd.Flags().StringVar(&actionNote, "note", "", "note recorded with the approval")
	skipCmd.Flags().StringVar(&actionReason, "reason", "", "why the step is being skipped")
	abortCmd.Flags().StringVar(&actionReason, "reason", "", "why the workflow is being aborted")
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "maximum number of workflows to list")
}

var startCmd = &cobra.Command{
	Use:   "start <workflow-type>",
	Short: "Start a workflow and make it the active one",
	Example: `  flowctl start bugfix --task "login flake on CI"
  flowctl start feature --task "bulk export" --context ticket=PROJ-142`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := newEngine()
		if err != nil {
			return err
		}

		root, err := resolveRoot()
		if err != nil {
			return err
		}
		if !config.Installed(root) {
			fmt.Fprintln(os.Stderr, "note: no .flowd directory yet; it will be created now")
		}

		wfCtx := map[string]string{}
		if startTask != "" {
			wfCtx["task"] = startTask
		}
		for _, kv := range startContext {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --context %q: want key=value", kv)
			}
			wfCtx[key] = value
		}

		ic := cfg.InstanceConfig()
		res, err := eng.Start(cmd.Context(), engine.StartRequest{
			WorkflowType: args[0],
			Context:      wfCtx,
			Config:       &ic,
		})
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Mark the current step done and move to the next one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		res, err := eng.Advance(cmd.Context(), actionNote)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the checkpoint gating the current step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		res, err := eng.Approve(cmd.Context(), actionNote)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <reason>",
	Short: "Reject the checkpoint gating the current step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		res, err := eng.Reject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry the failed step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		res, err := eng.Retry(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip the failed or optional current step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		res, err := eng.Skip(cmd.Context(), actionReason)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Abort the active workflow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		res, err := eng.Abort(cmd.Context(), actionReason)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [workflow-id]",
	Short: "Show the active workflow, or one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		res, err := eng.Status(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent workflows, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		entries, err := eng.List(cmd.Context(), listLimit)
		if err != nil {
			return err
		}
		return printList(entries)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [workflow-id]",
	Short: "Show the event history of the active workflow, or one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		h, err := eng.HistoryOf(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printHistory(h)
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the known workflow definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTypes(catalog.Default())
	},
}
