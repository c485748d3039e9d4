package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/flowd/internal/workflow"
)

// Status reports the state of the given instance, or of the active one
// when id is empty. Read-only; unknown ids yield a setup_required result
// rather than an error.
func (s *Service) Status(ctx context.Context, id string) (*workflow.Result, error) {
	ctx, span := s.tracer.Start(ctx, "engine.Status")
	defer span.End()

	if id == "" {
		var ok bool
		if id, ok = s.store.LoadActive(); !ok {
			res := &workflow.Result{
				Outcome:  workflow.OutcomeSetupRequired,
				Guidance: "no active workflow; start one, or pass an id to inspect a finished workflow",
			}
			s.recordAction(ctx, "status", res)
			return res, nil
		}
	}

	inst := s.store.LoadInstance(id)
	if inst == nil {
		res := &workflow.Result{
			Outcome:  workflow.OutcomeSetupRequired,
			Reason:   fmt.Sprintf("no workflow state found for %s", id),
			Guidance: "use list to see recent workflow ids",
		}
		s.recordAction(ctx, "status", res)
		return res, nil
	}

	res := s.resultFor(inst)
	s.recordAction(ctx, "status", res)
	return res, nil
}

// List returns recent workflow instances, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]workflow.ListEntry, error) {
	ctx, span := s.tracer.Start(ctx, "engine.List")
	defer span.End()

	ids := s.store.ListRecent(limit)
	entries := make([]workflow.ListEntry, 0, len(ids))
	for _, id := range ids {
		inst := s.store.LoadInstance(id)
		if inst == nil {
			continue
		}
		entries = append(entries, workflow.ListEntry{
			ID:           inst.ID,
			WorkflowType: inst.WorkflowType,
			Status:       inst.Status,
			CurrentStep:  inst.CurrentStep,
			TotalSteps:   inst.TotalSteps,
			UpdatedAt:    inst.UpdatedAt.Format(time.RFC3339),
		})
	}

	s.recordAction(ctx, "list", &workflow.Result{Outcome: workflow.OutcomeOK})
	return entries, nil
}

// HistoryOf returns the event history for the given instance, or for the
// active one when id is empty. Unknown ids yield an empty history.
func (s *Service) HistoryOf(ctx context.Context, id string) (*workflow.History, error) {
	ctx, span := s.tracer.Start(ctx, "engine.HistoryOf")
	defer span.End()

	if id == "" {
		id, _ = s.store.LoadActive()
	}
	if id == "" {
		s.recordAction(ctx, "history", &workflow.Result{Outcome: workflow.OutcomeSetupRequired})
		return &workflow.History{}, nil
	}

	s.recordAction(ctx, "history", &workflow.Result{Outcome: workflow.OutcomeOK})
	return s.store.LoadHistory(id), nil
}
