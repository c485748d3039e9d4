package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/engine"
	"github.com/fyrsmithlabs/flowd/internal/external"
	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

type stepSummary struct {
	Order      int    `json:"order"`
	Agent      string `json:"agent"`
	Action     string `json:"action"`
	Checkpoint string `json:"checkpoint,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count,omitempty"`
}

type actionHint struct {
	Kind        string `json:"kind"`
	Skill       string `json:"skill,omitempty"`
	Agent       string `json:"agent"`
	Tool        string `json:"tool,omitempty"`
	Instruction string `json:"instruction"`
}

// actionOutput is the shared shape of every mutating tool's result.
type actionOutput struct {
	Outcome      string       `json:"outcome"`
	WorkflowID   string       `json:"workflow_id,omitempty"`
	WorkflowType string       `json:"workflow_type,omitempty"`
	Status       string       `json:"status,omitempty"`
	CurrentStep  int          `json:"current_step,omitempty"`
	TotalSteps   int          `json:"total_steps,omitempty"`
	Step         *stepSummary `json:"step,omitempty"`
	NextStep     *stepSummary `json:"next_step,omitempty"`
	Hint         *actionHint  `json:"hint,omitempty"`
	Guidance     string       `json:"guidance,omitempty"`
	Reason       string       `json:"reason,omitempty"`
}

func summarize(step *workflow.StepState) *stepSummary {
	if step == nil {
		return nil
	}
	return &stepSummary{
		Order:      step.Order,
		Agent:      step.Agent,
		Action:     step.Action,
		Checkpoint: step.Checkpoint,
		Optional:   step.Optional,
		Status:     string(step.Status),
		RetryCount: step.RetryCount,
	}
}

func toOutput(res *workflow.Result) actionOutput {
	out := actionOutput{
		Outcome:      string(res.Outcome),
		WorkflowID:   res.WorkflowID,
		WorkflowType: res.WorkflowType,
		Status:       string(res.Status),
		CurrentStep:  res.CurrentStep,
		TotalSteps:   res.TotalSteps,
		Step:         summarize(res.Step),
		NextStep:     summarize(res.NextStep),
		Guidance:     res.Guidance,
		Reason:       res.Reason,
	}
	if res.OK() && res.Step != nil && !res.Status.Terminal() {
		h := external.ResolveAction(res.Step)
		out.Hint = &actionHint{
			Kind:        string(h.Kind),
			Skill:       h.Skill,
			Agent:       h.Agent,
			Tool:        h.Tool,
			Instruction: h.Instruction,
		}
	}
	return out
}

type startInput struct {
	WorkflowType string            `json:"workflow_type"`
	Task         string            `json:"task,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
}

type noteInput struct {
	Note string `json:"note,omitempty"`
}

type reasonInput struct {
	Reason string `json:"reason,omitempty"`
}

type emptyInput struct{}

type idInput struct {
	WorkflowID string `json:"workflow_id,omitempty"`
}

type listInput struct {
	Limit int `json:"limit,omitempty"`
}

type listOutput struct {
	Workflows []workflow.ListEntry `json:"workflows"`
}

type historyEvent struct {
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type historyOutput struct {
	WorkflowID string         `json:"workflow_id,omitempty"`
	Events     []historyEvent `json:"events"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_start",
		Description: "Start a workflow (feature, bugfix, refactor, release, hotfix, docs) for the current project",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args startInput) (*mcp.CallToolResult, actionOutput, error) {
		wfCtx := args.Context
		if args.Task != "" {
			if wfCtx == nil {
				wfCtx = map[string]string{}
			}
			wfCtx["task"] = args.Task
		}
		res, err := s.engine.Start(ctx, engine.StartRequest{
			WorkflowType: args.WorkflowType,
			Context:      wfCtx,
		})
		if err != nil {
			return nil, actionOutput{}, err
		}
		s.logger.Debug("workflow_start handled", zap.String("outcome", string(res.Outcome)))
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_advance",
		Description: "Mark the current workflow step done and move to the next one",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args noteInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Advance(ctx, args.Note)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_approve",
		Description: "Approve the checkpoint gating the current workflow step",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args noteInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Approve(ctx, args.Note)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_reject",
		Description: "Reject the checkpoint gating the current workflow step",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args reasonInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Reject(ctx, args.Reason)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_retry",
		Description: "Retry the failed workflow step",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args emptyInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Retry(ctx)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_skip",
		Description: "Skip the failed or optional current workflow step",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args reasonInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Skip(ctx, args.Reason)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_abort",
		Description: "Abort the active workflow",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args reasonInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Abort(ctx, args.Reason)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_status",
		Description: "Show the state of the active workflow, or of a workflow by id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args idInput) (*mcp.CallToolResult, actionOutput, error) {
		res, err := s.engine.Status(ctx, args.WorkflowID)
		if err != nil {
			return nil, actionOutput{}, err
		}
		return nil, toOutput(res), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_list",
		Description: "List recent workflows, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listInput) (*mcp.CallToolResult, listOutput, error) {
		limit := args.Limit
		if limit <= 0 {
			limit = 10
		}
		entries, err := s.engine.List(ctx, limit)
		if err != nil {
			return nil, listOutput{}, err
		}
		return nil, listOutput{Workflows: entries}, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workflow_history",
		Description: "Show the event history of the active workflow, or of a workflow by id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args idInput) (*mcp.CallToolResult, historyOutput, error) {
		h, err := s.engine.HistoryOf(ctx, args.WorkflowID)
		if err != nil {
			return nil, historyOutput{}, err
		}
		out := historyOutput{WorkflowID: h.WorkflowID, Events: make([]historyEvent, 0, len(h.Events))}
		for _, ev := range h.Events {
			out.Events = append(out.Events, historyEvent{
				Type:      string(ev.Type),
				Timestamp: ev.Timestamp.Format(time.RFC3339),
				Data:      ev.Data,
			})
		}
		return nil, out, nil
	})
}
