package repository

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

// FinancialSummary loads every cost record of a project and totals them
// per category. A project without records sums to zero.
func (r *Repository) FinancialSummary(ctx context.Context, projectID types.ID) (types.FinancialSummary, error) {
	st, err := r.store()
	if err != nil {
		return types.FinancialSummary{}, err
	}
	return summarize(ctx, st, projectID)
}

func summarize(ctx context.Context, st docstore.Store, projectID types.ID) (types.FinancialSummary, error) {
	var (
		workers   []types.Worker
		materials []types.Material
		equipment []types.Equipment
		expenses  []types.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	filter := byProject(projectID)
	g.Go(func() (err error) {
		workers, err = list[types.Worker](gctx, st, docstore.Workers, filter)
		return err
	})
	g.Go(func() (err error) {
		materials, err = list[types.Material](gctx, st, docstore.Materials, filter)
		return err
	})
	g.Go(func() (err error) {
		equipment, err = list[types.Equipment](gctx, st, docstore.Equipment, filter)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = list[types.Expense](gctx, st, docstore.Expenses, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.FinancialSummary{}, err
	}

	return Summarize(workers, materials, equipment, expenses), nil
}

// Summarize totals already loaded records.
//
// Labour uses a worker's stored total when non-zero, else wage times days.
// Materials and equipment count their stored total cost as is, and other
// expenses their amount.
func Summarize(workers []types.Worker, materials []types.Material, equipment []types.Equipment, expenses []types.Expense) types.FinancialSummary {
	var s types.FinancialSummary
	for _, w := range workers {
		s.LabourCost += w.LabourCost()
	}
	for _, m := range materials {
		s.MaterialCost += m.TotalCost.Float64()
	}
	for _, e := range equipment {
		s.EquipmentCost += e.TotalCost.Float64()
	}
	for _, e := range expenses {
		s.OtherExpenses += e.Amount.Float64()
	}
	s.TotalCost = s.LabourCost + s.MaterialCost + s.EquipmentCost + s.OtherExpenses
	return s
}

// BudgetReport compares a project's spend against its budget. An unknown
// project is (nil, nil).
func (r *Repository) BudgetReport(ctx context.Context, projectID types.ID) (*types.BudgetReport, error) {
	st, err := r.store()
	if err != nil {
		return nil, err
	}

	p, err := get[types.Project](ctx, st, docstore.Projects, projectID)
	if err != nil || p == nil {
		return nil, err
	}

	s, err := summarize(ctx, st, projectID)
	if err != nil {
		return nil, err
	}
	report := types.NewBudgetReport(*p, s)
	return &report, nil
}
