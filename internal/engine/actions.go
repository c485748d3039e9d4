package engine

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

// StartRequest carries the parameters of a start action.
type StartRequest struct {
	WorkflowType string

	// Context is caller-supplied metadata copied onto the instance.
	Context map[string]string

	// Config overrides the default instance configuration when non-nil.
	Config *workflow.InstanceConfig
}

// Start creates a new workflow instance and marks it active. Denied when
// another non-terminal instance is already active, or the workflow type
// is unknown.
func (s *Service) Start(ctx context.Context, req StartRequest) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Start",
		trace.WithAttributes(attribute.String("workflow_type", req.WorkflowType)))
	defer span.End()

	if id, ok := s.store.LoadActive(); ok {
		if existing := s.store.LoadInstance(id); existing != nil && !existing.Terminal() {
			res := s.deniedResult(existing, fmt.Sprintf(
				"workflow %s is already active; finish or abort it first", existing.ID))
			s.recordAction(ctx, "start", res)
			return res, nil
		}
		// Stale pointer: the instance finished or its state is gone.
		if err := s.store.ClearActive(); err != nil {
			return nil, fmt.Errorf("clearing stale active pointer: %w", err)
		}
	}

	def, ok := s.catalog.Get(req.WorkflowType)
	if !ok {
		res := &workflow.Result{
			Outcome: workflow.OutcomeDenied,
			Reason: fmt.Sprintf("unknown workflow type %q (known: %s)",
				req.WorkflowType, strings.Join(s.catalog.Names(), ", ")),
			Guidance: "pick a workflow type with the list of known definitions",
		}
		s.recordAction(ctx, "start", res)
		return res, nil
	}

	cfg := workflow.DefaultInstanceConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	now := s.now()
	inst := &workflow.Instance{
		ID:           workflow.NewID(def.Name, now),
		WorkflowType: def.Name,
		Status:       workflow.StatusRunning,
		CurrentStep:  1,
		TotalSteps:   len(def.Pipeline),
		Context:      req.Context,
		Steps:        make([]workflow.StepState, len(def.Pipeline)),
		Config:       cfg,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, step := range def.Pipeline {
		inst.Steps[i] = workflow.StepState{Step: step, Status: workflow.StepPending}
	}

	first := inst.Current()
	if first.Checkpoint != "" {
		first.Status = workflow.StepWaitingCheckpoint
		inst.Status = workflow.StatusWaitingCheckpoint
	} else {
		first.Status = workflow.StepRunning
	}

	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	if err := s.store.SaveActive(inst.ID, now); err != nil {
		return nil, err
	}
	data := map[string]any{"workflow_type": inst.WorkflowType}
	if task, ok := req.Context["task"]; ok {
		data["task"] = task
	}
	if err := s.appendEvent(inst, workflow.EventStart, data); err != nil {
		return nil, err
	}
	s.syncExternal(ctx, inst)

	s.logger.Info("workflow started",
		zap.String("workflow_id", inst.ID),
		zap.String("workflow_type", inst.WorkflowType),
		zap.Int("total_steps", inst.TotalSteps))

	res := s.resultFor(inst)
	s.recordAction(ctx, "start", res)
	return res, nil
}

// Advance completes the current step of a running instance and moves to
// the next one, or completes the workflow on the last step. Checkpointed
// steps never pass through here: they gate the instance in
// waiting_checkpoint, which routes through Approve.
func (s *Service) Advance(ctx context.Context, note string) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Advance")
	defer span.End()

	inst, denied := s.loadActiveInstance()
	if denied != nil {
		s.recordAction(ctx, "advance", denied)
		return denied, nil
	}

	if inst.Status != workflow.StatusRunning {
		res := s.deniedResult(inst, fmt.Sprintf(
			"advance requires a running workflow, status is %s; valid actions: %s",
			inst.Status, validActionsFor(inst)))
		s.recordAction(ctx, "advance", res)
		return res, nil
	}
	if cur := inst.Current(); cur.Checkpoint != "" && cur.Status == workflow.StepWaitingCheckpoint {
		res := s.deniedResult(inst, fmt.Sprintf(
			"checkpoint %q is not cleared; use approve or reject", cur.Checkpoint))
		s.recordAction(ctx, "advance", res)
		return res, nil
	}

	finishedStep := inst.CurrentStep
	s.markAndMove(inst, workflow.StepCompleted)

	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	data := map[string]any{"step": finishedStep}
	if note != "" {
		data["note"] = note
	}
	if err := s.appendEvent(inst, workflow.EventAdvance, data); err != nil {
		return nil, err
	}
	if err := s.finishIfComplete(ctx, inst); err != nil {
		return nil, err
	}
	s.syncExternal(ctx, inst)

	res := s.resultFor(inst)
	s.recordAction(ctx, "advance", res)
	return res, nil
}

// Approve clears the checkpoint gating the current step and moves the
// workflow forward.
func (s *Service) Approve(ctx context.Context, note string) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Approve")
	defer span.End()

	inst, denied := s.loadActiveInstance()
	if denied != nil {
		s.recordAction(ctx, "approve", denied)
		return denied, nil
	}

	if inst.Status != workflow.StatusWaitingCheckpoint {
		res := s.deniedResult(inst, fmt.Sprintf(
			"approve requires a pending checkpoint, status is %s; valid actions: %s",
			inst.Status, validActionsFor(inst)))
		s.recordAction(ctx, "approve", res)
		return res, nil
	}
	cur := inst.Current()
	if cur.Checkpoint == "" {
		res := s.deniedResult(inst, fmt.Sprintf(
			"step %d declares no checkpoint; use advance", inst.CurrentStep))
		s.recordAction(ctx, "approve", res)
		return res, nil
	}

	finishedStep := inst.CurrentStep
	checkpoint := cur.Checkpoint
	s.markAndMove(inst, workflow.StepCompleted)

	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	data := map[string]any{"step": finishedStep, "checkpoint": checkpoint}
	if note != "" {
		data["note"] = note
	}
	if err := s.appendEvent(inst, workflow.EventCheckpointApproved, data); err != nil {
		return nil, err
	}
	if err := s.appendEvent(inst, workflow.EventCompleteStep, map[string]any{"step": finishedStep}); err != nil {
		return nil, err
	}
	if err := s.finishIfComplete(ctx, inst); err != nil {
		return nil, err
	}
	s.syncExternal(ctx, inst)

	res := s.resultFor(inst)
	s.recordAction(ctx, "approve", res)
	return res, nil
}

// Reject fails the current checkpointed step and parks the instance in
// failed_step for retry, skip or abort.
func (s *Service) Reject(ctx context.Context, reason string) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Reject")
	defer span.End()

	inst, denied := s.loadActiveInstance()
	if denied != nil {
		s.recordAction(ctx, "reject", denied)
		return denied, nil
	}

	if inst.Status != workflow.StatusWaitingCheckpoint {
		res := s.deniedResult(inst, fmt.Sprintf(
			"reject requires a pending checkpoint, status is %s; valid actions: %s",
			inst.Status, validActionsFor(inst)))
		s.recordAction(ctx, "reject", res)
		return res, nil
	}
	cur := inst.Current()
	if cur.Checkpoint == "" {
		res := s.deniedResult(inst, fmt.Sprintf(
			"step %d declares no checkpoint; nothing to reject", inst.CurrentStep))
		s.recordAction(ctx, "reject", res)
		return res, nil
	}

	cur.Status = workflow.StepFailed
	inst.Status = workflow.StatusFailedStep
	inst.UpdatedAt = s.now()

	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	data := map[string]any{"step": inst.CurrentStep, "checkpoint": cur.Checkpoint}
	if reason != "" {
		data["reason"] = reason
	}
	if err := s.appendEvent(inst, workflow.EventCheckpointRejected, data); err != nil {
		return nil, err
	}
	s.syncExternal(ctx, inst)

	res := s.resultFor(inst)
	s.recordAction(ctx, "reject", res)
	return res, nil
}

// Retry re-runs the current failed step, aborting the workflow once the
// retry budget is exhausted.
func (s *Service) Retry(ctx context.Context) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Retry")
	defer span.End()

	inst, denied := s.loadActiveInstance()
	if denied != nil {
		s.recordAction(ctx, "retry", denied)
		return denied, nil
	}

	if inst.Status != workflow.StatusFailedStep {
		res := s.deniedResult(inst, fmt.Sprintf(
			"retry requires a failed step, status is %s; valid actions: %s",
			inst.Status, validActionsFor(inst)))
		s.recordAction(ctx, "retry", res)
		return res, nil
	}

	cur := inst.Current()
	cur.RetryCount++
	inst.UpdatedAt = s.now()

	if cur.RetryCount > inst.Config.MaxRetries {
		inst.Status = workflow.StatusAborted
		if err := s.store.SaveInstance(inst); err != nil {
			return nil, err
		}
		if err := s.store.ClearActive(); err != nil {
			return nil, err
		}
		if err := s.appendEvent(inst, workflow.EventAbort, map[string]any{
			"step":   inst.CurrentStep,
			"reason": fmt.Sprintf("retries exhausted (%d > max %d)", cur.RetryCount, inst.Config.MaxRetries),
		}); err != nil {
			return nil, err
		}
		s.recordTerminal(ctx, inst)
		s.syncExternal(ctx, inst)

		s.logger.Warn("workflow aborted after exhausting retries",
			zap.String("workflow_id", inst.ID),
			zap.Int("step", inst.CurrentStep),
			zap.Int("max_retries", inst.Config.MaxRetries))

		res := s.resultFor(inst)
		s.recordAction(ctx, "retry", res)
		return res, nil
	}

	cur.Status = workflow.StepRunning
	inst.Status = workflow.StatusRunning
	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	if err := s.appendEvent(inst, workflow.EventRetry, map[string]any{
		"step":        inst.CurrentStep,
		"retry_count": cur.RetryCount,
	}); err != nil {
		return nil, err
	}
	s.syncExternal(ctx, inst)

	res := s.resultFor(inst)
	s.recordAction(ctx, "retry", res)
	return res, nil
}

// Skip marks the current step skipped and moves forward. Allowed from
// failed_step, or from running when the step is optional.
func (s *Service) Skip(ctx context.Context, reason string) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Skip")
	defer span.End()

	inst, denied := s.loadActiveInstance()
	if denied != nil {
		s.recordAction(ctx, "skip", denied)
		return denied, nil
	}

	cur := inst.Current()
	allowed := inst.Status == workflow.StatusFailedStep ||
		(inst.Status == workflow.StatusRunning && cur != nil && cur.Optional)
	if !allowed {
		res := s.deniedResult(inst, fmt.Sprintf(
			"skip requires a failed step or an optional running step, status is %s; valid actions: %s",
			inst.Status, validActionsFor(inst)))
		s.recordAction(ctx, "skip", res)
		return res, nil
	}

	finishedStep := inst.CurrentStep
	s.markAndMove(inst, workflow.StepSkipped)

	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	data := map[string]any{"step": finishedStep}
	if reason != "" {
		data["reason"] = reason
	}
	if err := s.appendEvent(inst, workflow.EventSkip, data); err != nil {
		return nil, err
	}
	if err := s.appendEvent(inst, workflow.EventCompleteStep, map[string]any{"step": finishedStep}); err != nil {
		return nil, err
	}
	if err := s.finishIfComplete(ctx, inst); err != nil {
		return nil, err
	}
	s.syncExternal(ctx, inst)

	res := s.resultFor(inst)
	s.recordAction(ctx, "skip", res)
	return res, nil
}

// Abort terminates the workflow from any non-terminal status.
func (s *Service) Abort(ctx context.Context, reason string) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Abort")
	defer span.End()

	inst, denied := s.loadActiveInstance()
	if denied != nil {
		s.recordAction(ctx, "abort", denied)
		return denied, nil
	}

	inst.Status = workflow.StatusAborted
	inst.UpdatedAt = s.now()

	if err := s.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	if err := s.store.ClearActive(); err != nil {
		return nil, err
	}
	data := map[string]any{"step": inst.CurrentStep}
	if reason != "" {
		data["reason"] = reason
	}
	if err := s.appendEvent(inst, workflow.EventAbort, data); err != nil {
		return nil, err
	}
	s.recordTerminal(ctx, inst)
	s.syncExternal(ctx, inst)

	s.logger.Info("workflow aborted",
		zap.String("workflow_id", inst.ID),
		zap.String("reason", reason))

	res := s.resultFor(inst)
	s.recordAction(ctx, "abort", res)
	return res, nil
}

// markAndMove finishes the current step with the given status and either
// activates the next step or completes the workflow.
func (s *Service) markAndMove(inst *workflow.Instance, mark workflow.StepStatus) {
	inst.Current().Status = mark
	inst.UpdatedAt = s.now()

	next := inst.Next()
	if next == nil {
		inst.Status = workflow.StatusCompleted
		return
	}

	inst.CurrentStep++
	if next.Checkpoint != "" {
		next.Status = workflow.StepWaitingCheckpoint
		inst.Status = workflow.StatusWaitingCheckpoint
	} else {
		next.Status = workflow.StepRunning
		inst.Status = workflow.StatusRunning
	}
}

// finishIfComplete clears the active pointer and emits the terminal
// complete event when markAndMove completed the workflow.
func (s *Service) finishIfComplete(ctx context.Context, inst *workflow.Instance) error {
	if inst.Status != workflow.StatusCompleted {
		return nil
	}
	if err := s.store.ClearActive(); err != nil {
		return err
	}
	if err := s.appendEvent(inst, workflow.EventComplete, map[string]any{
		"total_steps": inst.TotalSteps,
	}); err != nil {
		return err
	}
	s.recordTerminal(ctx, inst)

	s.logger.Info("workflow completed",
		zap.String("workflow_id", inst.ID),
		zap.Int("total_steps", inst.TotalSteps))
	return nil
}
