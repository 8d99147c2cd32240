package repository

import (
	"context"
	"strings"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// DefaultExpenseCategory is used when an expense arrives without one.
const DefaultExpenseCategory = "Other"

// ListExpenses returns the expenses of a project.
func (r *Repository) ListExpenses(ctx context.Context, projectID types.ID) ([]types.Expense, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return list[types.Expense](ctx, st, docstore.Expenses, byProject(projectID))
}

// GetExpense returns the expense or nil.
func (r *Repository) GetExpense(ctx context.Context, id types.ID) (*types.Expense, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}
	return get[types.Expense](ctx, st, docstore.Expenses, id)
}

// CreateExpense validates and stores an expense.
func (r *Repository) CreateExpense(ctx context.Context, in types.ExpenseInput) (*types.Expense, error) {
	if err := validateProjectRef(in.ProjectID); err != nil {
		return nil, err
	}
	if err := validateExpense(expenseFields{Amount: &in.Amount, Date: &in.Date}); err != nil {
		return nil, err
	}

	st, err := r.store()
	if err != nil {
		return nil, err
	}
	if err := requireProject(ctx, st, in.ProjectID); err != nil {
		return nil, err
	}

	category := in.Category
	if strings.TrimSpace(category) == "" {
		category = DefaultExpenseCategory
	}

	e := &types.Expense{
		ID:          types.NewID(),
		ProjectID:   in.ProjectID,
		Amount:      in.Amount,
		Category:    category,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   r.timestamp(),
	}
	if err := insert(ctx, st, docstore.Expenses, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateExpense merges patch into the expense.
func (r *Repository) UpdateExpense(ctx context.Context, id types.ID, patch types.ExpensePatch) (*types.Expense, error) {
	if err := validateExpense(expenseFields{Amount: patch.Amount, Date: patch.Date}); err != nil {
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
	return update[types.Expense](ctx, st, docstore.Expenses, id, set)
}

// DeleteExpense removes an expense and reports how many records went away.
func (r *Repository) DeleteExpense(ctx context.Context, id types.ID) (int64, error) {
	st, err := r.store()
	if err != nil {
		return 0, err
	}
	return remove(ctx, st, docstore.Expenses, id)
}
