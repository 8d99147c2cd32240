package repository

import (
	"context"
	"fmt"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// DeleteProjectResult reports what a project delete removed.
type DeleteProjectResult struct {
	Deleted  int64                 `json:"deleted"`
	Children types.ProjectChildren `json:"children"`
}

// ListProjects returns every project.
func (r *Repository) ListProjects(ctx context.Context) ([]types.Project, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return list[types.Project](ctx, st, docstore.Projects, nil)
}

// GetProject returns the project or nil.
func (r *Repository) GetProject(ctx context.Context, id types.ID) (*types.Project, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return get[types.Project](ctx, st, docstore.Projects, id)
}

// CreateProject validates and stores a new project.
func (r *Repository) CreateProject(ctx context.Context, in types.ProjectInput) (*types.Project, error) {
	err := validateProject(projectFields{
		Name:      &in.Name,
		Location:  &in.Location,
		StartDate: &in.StartDate,
		Budget:    &in.Budget,
		Breakdown: in.BudgetBreakdown,
	})
	if err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	p := &types.Project{
		ID:              types.NewID(),
		Name:            in.Name,
		Location:        in.Location,
		Description:     in.Description,
		Budget:          in.Budget,
		BudgetBreakdown: in.BudgetBreakdown,
		StartDate:       in.StartDate,
		CreatedAt:       r.timestamp(),
	}
	if err := insert(ctx, st, docstore.Projects, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProject merges patch into the project and returns the stored result.
func (r *Repository) UpdateProject(ctx context.Context, id types.ID, patch types.ProjectPatch) (*types.Project, error) {
	err := validateProject(projectFields{
		Name:      patch.Name,
		Location:  patch.Location,
		StartDate: patch.StartDate,
		Budget:    patch.Budget,
		Breakdown: patch.BudgetBreakdown,
	})
	if err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}

	set, err := r.patchSet(patch)
	if err != nil {
		return nil, err
	}
	return update[types.Project](ctx, st, docstore.Projects, id, set)
}

// ProjectChildren counts the records referencing a project.
func (r *Repository) ProjectChildren(ctx context.Context, id types.ID) (types.ProjectChildren, error) {
	st, err := r.store()
	if err != nil {
		return types.ProjectChildren{}, err
	}
	return countChildren(ctx, st, id)
}

func countChildren(ctx context.Context, st docstore.Store, id types.ID) (types.ProjectChildren, error) {
	var c types.ProjectChildren
	for _, item := range []struct {
		collection string
		dst        *int64
	}{
		{docstore.Workers, &c.Workers},
		{docstore.Materials, &c.Materials},
		{docstore.Equipment, &c.Equipment},
		{docstore.Expenses, &c.Expenses},
	} {
		n, err := st.Count(ctx, item.collection, byProject(id))
		if err != nil {
			return c, fmt.Errorf("count %s: %w", item.collection, err)
		}
		*item.dst = n
	}
	return c, nil
}

// DeleteProject removes a project. A project that still owns records is
// refused with ErrProjectHasChildren unless cascade is set, in which case
// the records go first. Deleting an unknown id reports zero deletions.
func (r *Repository) DeleteProject(ctx context.Context, id types.ID, cascade bool) (*DeleteProjectResult, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}

	if n, err := st.Count(ctx, docstore.Projects, docstore.ByID(id)); err != nil {
		return nil, err
	} else if n == 0 {
		return &DeleteProjectResult{}, nil
	}

	children, err := countChildren(ctx, st, id)
	if err != nil {
		return nil, err
	}
	if children.Total() > 0 && !cascade {
		return nil, fmt.Errorf("%w: %d workers, %d materials, %d equipment, %d expenses",
			ErrProjectHasChildren, children.Workers, children.Materials, children.Equipment, children.Expenses)
	}

	result := &DeleteProjectResult{}
	if children.Total() > 0 {
		for _, item := range []struct {
			collection string
			dst        *int64
		}{
			{docstore.Workers, &result.Children.Workers},
			{docstore.Materials, &result.Children.Materials},
			{docstore.Equipment, &result.Children.Equipment},
			{docstore.Expenses, &result.Children.Expenses},
		} {
			n, err := st.DeleteMany(ctx, item.collection, byProject(id))
			if err != nil {
				return nil, fmt.Errorf("delete %s: %w", item.collection, err)
			}
			*item.dst = n
		}
	}

	result.Deleted, err = remove(ctx, st, docstore.Projects, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}
