package repository

import (
	"context"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// ListMaterials returns the materials of a project.
func (r *Repository) ListMaterials(ctx context.Context, projectID types.ID) ([]types.Material, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return list[types.Material](ctx, st, docstore.Materials, byProject(projectID))
}

// GetMaterial returns the material or nil.
func (r *Repository) GetMaterial(ctx context.Context, id types.ID) (*types.Material, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return get[types.Material](ctx, st, docstore.Materials, id)
}

// CreateMaterial validates and stores a material. A missing total is
// derived from quantity and unit price.
func (r *Repository) CreateMaterial(ctx context.Context, in types.MaterialInput) (*types.Material, error) {
	if err := validateProjectRef(in.ProjectID); err != nil {
		return nil, err
	}
	err := validateMaterial(materialFields{
		Name:      &in.Name,
		Unit:      &in.Unit,
		Category:  &in.Category,
		Quantity:  &in.Quantity,
		UnitPrice: &in.UnitPrice,
		TotalCost: &in.TotalCost,
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

	m := &types.Material{
		ID:        types.NewID(),
		ProjectID: in.ProjectID,
		Name:      in.Name,
		Category:  in.Category,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		UnitPrice: in.UnitPrice,
		TotalCost: in.TotalCost,
		Supplier:  in.Supplier,
		Notes:     in.Notes,
		CreatedAt: r.timestamp(),
	}
	if m.TotalCost == 0 {
		m.TotalCost = m.Quantity * m.UnitPrice
	}

	if err := insert(ctx, st, docstore.Materials, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMaterial merges patch into the material, recomputing the total
// when quantity or price change without an explicit total.
func (r *Repository) UpdateMaterial(ctx context.Context, id types.ID, patch types.MaterialPatch) (*types.Material, error) {
	err := validateMaterial(materialFields{
		Name:      patch.Name,
		Unit:      patch.Unit,
		Category:  patch.Category,
		Quantity:  patch.Quantity,
		UnitPrice: patch.UnitPrice,
		TotalCost: patch.TotalCost,
	})
	if err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	if patch.TotalCost == nil && (patch.Quantity != nil || patch.UnitPrice != nil) {
		current, err := get[types.Material](ctx, st, docstore.Materials, id)
		if err != nil || current == nil {
			return nil, err
		}
		qty, price := current.Quantity, current.UnitPrice
		if patch.Quantity != nil {
			qty = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			price = *patch.UnitPrice
		}
		total := qty * price
		patch.TotalCost = &total
	}

	set, err := r.patchSet(patch)
	if err != nil {
		return nil, err
	}
	return update[types.Material](ctx, st, docstore.Materials, id, set)
}

// DeleteMaterial removes a material and reports how many records went away.
func (r *Repository) DeleteMaterial(ctx context.Context, id types.ID) (int64, error) {
	st, err := r.store()
	if err != nil {
		return 0, err
	}
	return remove(ctx, st, docstore.Materials, id)
}
