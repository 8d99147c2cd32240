package repository

import (
	"context"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// ListWorkers returns the workers of a project.
func (r *Repository) ListWorkers(ctx context.Context, projectID types.ID) ([]types.Worker, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return list[types.Worker](ctx, st, docstore.Workers, byProject(projectID))
}

// GetWorker returns the worker or nil.
func (r *Repository) GetWorker(ctx context.Context, id types.ID) (*types.Worker, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return get[types.Worker](ctx, st, docstore.Workers, id)
}

// CreateWorker validates and stores a worker. A missing total is derived
// from wage and days.
func (r *Repository) CreateWorker(ctx context.Context, in types.WorkerInput) (*types.Worker, error) {
	if err := validateProjectRef(in.ProjectID); err != nil {
		return nil, err
	}
	err := validateWorker(workerFields{
		Name:       &in.Name,
		Phone:      &in.Phone,
		Category:   &in.Category,
		DailyWage:  &in.DailyWage,
		DaysWorked: &in.DaysWorked,
		Experience: &in.Experience,
		TotalCost:  &in.TotalCost,
	})
	if err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}
	if err := requireProject(ctx, st, in.ProjectID); err != nil {
		return nil, err
	}

	w := &types.Worker{
		ID:         types.NewID(),
		ProjectID:  in.ProjectID,
		Name:       in.Name,
		Category:   in.Category,
		Phone:      in.Phone,
		DailyWage:  in.DailyWage,
		DaysWorked: in.DaysWorked,
		Experience: in.Experience,
		TotalCost:  in.TotalCost,
		Tools:      in.Tools,
		Notes:      in.Notes,
		CreatedAt:  r.timestamp(),
	}
	if w.TotalCost == 0 {
		w.TotalCost = w.DailyWage * w.DaysWorked
	}

	if err := insert(ctx, st, docstore.Workers, w); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWorker merges patch into the worker. When wage or days change and
// no total is given, the stored total is recomputed.
func (r *Repository) UpdateWorker(ctx context.Context, id types.ID, patch types.WorkerPatch) (*types.Worker, error) {
	err := validateWorker(workerFields{
		Name:       patch.Name,
		Phone:      patch.Phone,
		Category:   patch.Category,
		DailyWage:  patch.DailyWage,
		DaysWorked: patch.DaysWorked,
		Experience: patch.Experience,
		TotalCost:  patch.TotalCost,
	})
	if err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	if patch.TotalCost == nil && (patch.DailyWage != nil || patch.DaysWorked != nil) {
		current, err := get[types.Worker](ctx, st, docstore.Workers, id)
		if err != nil || current == nil {
			return nil, err
		}
		wage, days := current.DailyWage, current.DaysWorked
		if patch.DailyWage != nil {
			wage = *patch.DailyWage
		}
		if patch.DaysWorked != nil {
			days = *patch.DaysWorked
		}
		total := wage * days
		patch.TotalCost = &total
	}

	set, err := r.patchSet(patch)
	if err != nil {
		return nil, err
	}
	return update[types.Worker](ctx, st, docstore.Workers, id, set)
}

// DeleteWorker removes a worker and reports how many records went away.
func (r *Repository) DeleteWorker(ctx context.Context, id types.ID) (int64, error) {
	st, err := r.store()
	if err != nil {
		return 0, err
	}
	return remove(ctx, st, docstore.Workers, id)
}
