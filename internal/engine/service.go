package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowd/internal/catalog"
	"github.com/fyrsmithlabs/flowd/internal/store"
	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

const instrumentationName = "github.com/fyrsmithlabs/flowd/internal/engine"

// ExternalSync mirrors instance status into an external orchestration
// tool. Implementations must be best-effort; the engine logs and ignores
// their errors.
type ExternalSync interface {
	Sync(ctx context.Context, inst *workflow.Instance) error
}

// Service applies workflow transitions against a store.
type Service struct {
	store   *store.Store
	catalog *catalog.Catalog
	sync    ExternalSync
	logger  *zap.Logger

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time

	tracer            trace.Tracer
	meter             metric.Meter
	actionCounter     metric.Int64Counter
	completionCounter metric.Int64Counter
}

// NewService creates the engine. The sync is optional (nil disables
// external mirroring); the logger may be nil.
func NewService(st *store.Store, cat *catalog.Catalog, sync ExternalSync, logger *zap.Logger) (*Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		store:   st,
		catalog: cat,
		sync:    sync,
		logger:  logger,
		now:     time.Now,
		tracer:  otel.Tracer(instrumentationName),
		meter:   otel.Meter(instrumentationName),
	}
	s.initMetrics()
	return s, nil
}

func (s *Service) initMetrics() {
	var err error

	s.actionCounter, err = s.meter.Int64Counter(
		"flowd.workflow.actions_total",
		metric.WithDescription("Workflow engine actions by name and outcome"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		s.logger.Warn("failed to create action counter", zap.Error(err))
	}

	s.completionCounter, err = s.meter.Int64Counter(
		"flowd.workflow.completions_total",
		metric.WithDescription("Workflows reaching a terminal status"),
		metric.WithUnit("{workflow}"),
	)
	if err != nil {
		s.logger.Warn("failed to create completion counter", zap.Error(err))
	}
}

func (s *Service) recordAction(ctx context.Context, action string, res *workflow.Result) {
	if s.actionCounter == nil || res == nil {
		return
	}
	s.actionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("outcome", string(res.Outcome)),
		))
}

func (s *Service) recordTerminal(ctx context.Context, inst *workflow.Instance) {
	if s.completionCounter == nil {
		return
	}
	s.completionCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("workflow_type", inst.WorkflowType),
			attribute.String("status", string(inst.Status)),
		))
}

// appendEvent records one history event unless history is disabled for
// the instance.
func (s *Service) appendEvent(inst *workflow.Instance, t workflow.EventType, data map[string]any) error {
	if !inst.Config.HistoryEnabled {
		return nil
	}
	return s.store.AppendEvent(inst.ID, workflow.NewEvent(t, s.now(), data))
}

// syncExternal mirrors the instance into the external tool. Never fails
// the caller.
func (s *Service) syncExternal(ctx context.Context, inst *workflow.Instance) {
	if s.sync == nil || !inst.Config.SyncToExternal {
		return
	}
	if err := s.sync.Sync(ctx, inst); err != nil {
		s.logger.Debug("external sync failed",
			zap.String("workflow_id", inst.ID),
			zap.Error(err))
	}
}

// loadActiveInstance resolves the active instance. The Result is non-nil
// when there is nothing valid to act on.
func (s *Service) loadActiveInstance() (*workflow.Instance, *workflow.Result) {
	id, ok := s.store.LoadActive()
	if !ok {
		return nil, &workflow.Result{
			Outcome:  workflow.OutcomeSetupRequired,
			Guidance: "no active workflow; start one with the start action",
		}
	}

	inst := s.store.LoadInstance(id)
	if inst == nil {
		// Pointer references a missing or corrupt instance. Treat as no
		// state rather than failing.
		return nil, &workflow.Result{
			Outcome:  workflow.OutcomeSetupRequired,
			Reason:   fmt.Sprintf("active workflow %s has no readable state", id),
			Guidance: "start a new workflow; the stale pointer will be replaced",
		}
	}

	if inst.Terminal() {
		return nil, s.deniedResult(inst, fmt.Sprintf(
			"workflow %s is already %s; no further actions apply", inst.ID, inst.Status))
	}
	return inst, nil
}

// deniedResult builds an invalid-transition result echoing the current
// state so the caller can recover without re-reading anything.
func (s *Service) deniedResult(inst *workflow.Instance, reason string) *workflow.Result {
	res := s.resultFor(inst)
	res.Outcome = workflow.OutcomeDenied
	res.Reason = reason
	return res
}

// resultFor snapshots the instance into an OK result with guidance.
func (s *Service) resultFor(inst *workflow.Instance) *workflow.Result {
	res := &workflow.Result{
		Outcome:      workflow.OutcomeOK,
		WorkflowID:   inst.ID,
		WorkflowType: inst.WorkflowType,
		Status:       inst.Status,
		CurrentStep:  inst.CurrentStep,
		TotalSteps:   inst.TotalSteps,
		Guidance:     guidance(inst),
	}
	if cur := inst.Current(); cur != nil {
		c := *cur
		res.Step = &c
	}
	if next := inst.Next(); next != nil {
		n := *next
		res.NextStep = &n
	}
	return res
}

// guidance renders the what-to-do-next line for an instance.
func guidance(inst *workflow.Instance) string {
	cur := inst.Current()
	switch inst.Status {
	case workflow.StatusRunning:
		if cur == nil {
			return "workflow is running"
		}
		line := fmt.Sprintf("step %d/%d (%s): %s; advance when done",
			inst.CurrentStep, inst.TotalSteps, cur.Agent, cur.Action)
		if cur.Optional {
			line += " (optional; skip is allowed)"
		}
		return line
	case workflow.StatusWaitingCheckpoint:
		if cur == nil {
			return "awaiting checkpoint approval"
		}
		return fmt.Sprintf("checkpoint %q gates step %d/%d; approve or reject it",
			cur.Checkpoint, inst.CurrentStep, inst.TotalSteps)
	case workflow.StatusFailedStep:
		valid := "retry, skip or abort"
		if cur != nil {
			return fmt.Sprintf("step %d/%d failed; %s", inst.CurrentStep, inst.TotalSteps, valid)
		}
		return valid
	case workflow.StatusCompleted:
		return fmt.Sprintf("workflow %s completed all %d steps", inst.ID, inst.TotalSteps)
	case workflow.StatusAborted:
		return fmt.Sprintf("workflow %s was aborted", inst.ID)
	}
	return ""
}

// validActionsFor names the actions permitted from a status, for denial
// reasons.
func validActionsFor(inst *workflow.Instance) string {
	switch inst.Status {
	case workflow.StatusRunning:
		actions := []string{"advance", "abort"}
		if cur := inst.Current(); cur != nil && cur.Optional {
			actions = []string{"advance", "skip", "abort"}
		}
		return strings.Join(actions, ", ")
	case workflow.StatusWaitingCheckpoint:
		return "approve, reject, abort"
	case workflow.StatusFailedStep:
		return "retry, skip, abort"
	default:
		return "start"
	}
}
