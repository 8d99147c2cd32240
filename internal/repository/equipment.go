package repository

import (
	"context"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// ListEquipment returns the equipment of a project.
func (r *Repository) ListEquipment(ctx context.Context, projectID types.ID) ([]types.Equipment, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return list[types.Equipment](ctx, st, docstore.Equipment, byProject(projectID))
}

// GetEquipment returns the equipment record or nil.
func (r *Repository) GetEquipment(ctx context.Context, id types.ID) (*types.Equipment, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return get[types.Equipment](ctx, st, docstore.Equipment, id)
}

// CreateEquipment validates and stores an equipment record.
func (r *Repository) CreateEquipment(ctx context.Context, in types.EquipmentInput) (*types.Equipment, error) {
	if err := validateProjectRef(in.ProjectID); err != nil {
		return nil, err
	}
	err := validateEquipment(equipmentFields{
		Name:       &in.Name,
		Status:     &in.Status,
		Ownership:  &in.Ownership,
		TotalCost:  &in.TotalCost,
		RentalRate: &in.RentalRate,
	})
	if err != nil {
		return nil, err
	}
	if err := validateRental(in.Ownership, in.RentalRate); err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}
	if err := requireProject(ctx, st, in.ProjectID); err != nil {
		return nil, err
	}

	e := &types.Equipment{
		ID:         types.NewID(),
		ProjectID:  in.ProjectID,
		Name:       in.Name,
		Category:   in.Category,
		Status:     in.Status,
		Ownership:  in.Ownership,
		TotalCost:  in.TotalCost,
		RentalRate: in.RentalRate,
		Supplier:   in.Supplier,
		Notes:      in.Notes,
		CreatedAt:  r.timestamp(),
	}
	if err := insert(ctx, st, docstore.Equipment, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEquipment merges patch into the record. Rented equipment must keep
// a positive rental rate after the merge.
func (r *Repository) UpdateEquipment(ctx context.Context, id types.ID, patch types.EquipmentPatch) (*types.Equipment, error) {
	err := validateEquipment(equipmentFields{
		Name:       patch.Name,
		Status:     patch.Status,
		Ownership:  patch.Ownership,
		TotalCost:  patch.TotalCost,
		RentalRate: patch.RentalRate,
	})
	if err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	if patch.Ownership != nil || patch.RentalRate != nil {
		current, err := get[types.Equipment](ctx, st, docstore.Equipment, id)
		if err != nil || current == nil {
			return nil, err
		}
		ownership, rate := current.Ownership, current.RentalRate
		if patch.Ownership != nil {
			ownership = *patch.Ownership
		}
		if patch.RentalRate != nil {
			rate = *patch.RentalRate
		}
		if err := validateRental(ownership, rate); err != nil {
			return nil, err
		}
	}

	set, err := r.patchSet(patch)
	if err != nil {
		return nil, err
	}
	return update[types.Equipment](ctx, st, docstore.Equipment, id, set)
}

// DeleteEquipment removes an equipment record and reports how many went away.
func (r *Repository) DeleteEquipment(ctx context.Context, id types.ID) (int64, error) {
	st, err := r.store()
	if err != nil {
		return 0, err
	}
	return remove(ctx, st, docstore.Equipment, id)
}
