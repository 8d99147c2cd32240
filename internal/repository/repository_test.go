package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtrack/buildtrack/internal/docstore"
	"github.com/buildtrack/buildtrack/pkg/types"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repository, docstore.Store) {
	t.Helper()
	st := docstore.NewMemory()
	require.NoError(t, docstore.Initialize(context.Background(), st))
	h := docstore.NewHandle()
	h.Swap(st)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return New(h, WithClock(func() time.Time { return fixedNow })), st
}

func createProject(t *testing.T, r *Repository) *types.Project {
	t.Helper()
	p, err := r.CreateProject(context.Background(), types.ProjectInput{
		Name:      "Riverside Villa",
		Location:  "Pune",
		Budget:    10000,
		StartDate: "2025-01-15",
		BudgetBreakdown: &types.BudgetBreakdown{
			Labour: 4000, Materials: 3000, Equipment: 2000, Other: 1000,
		},
	})
	require.NoError(t, err)
	return p
}

func workerInput(projectID types.ID) types.WorkerInput {
	return types.WorkerInput{
		ProjectID:  projectID,
		Name:       "Ravi",
		Category:   types.WorkerMason,
		Phone:      "9800000000",
		DailyWage:  500,
		DaysWorked: 10,
	}
}

func TestRepository_Uninitialized(t *testing.T) {
	r := New(docstore.NewHandle())
	_, err := r.ListProjects(context.Background())
	assert.ErrorIs(t, err, docstore.ErrUninitialized)
}

func TestProjects_CRUD(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	p := createProject(t, r)
	assert.False(t, p.ID.IsZero())
	assert.Equal(t, fixedNow, p.CreatedAt)

	got, err := r.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Riverside Villa", got.Name)
	assert.Equal(t, types.Amount(4000), got.BudgetBreakdown.Labour)

	name := "Riverside Villa II"
	updated, err := r.UpdateProject(ctx, p.ID, types.ProjectPatch{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "Pune", updated.Location)
	require.NotNil(t, updated.UpdatedAt)

	all, err := r.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	res, err := r.DeleteProject(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)

	got, err = r.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProjects_Missing(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	got, err := r.GetProject(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	name := "x"
	updated, err := r.UpdateProject(ctx, "missing", types.ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, updated)

	res, err := r.DeleteProject(ctx, "missing", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Deleted)
}

func TestProjects_Validation(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    types.ProjectInput
		field string
	}{
		{"missing name", types.ProjectInput{Location: "Pune", Budget: 1, StartDate: "2025-01-01"}, "name"},
		{"missing location", types.ProjectInput{Name: "a", Budget: 1, StartDate: "2025-01-01"}, "location"},
		{"zero budget", types.ProjectInput{Name: "a", Location: "b", StartDate: "2025-01-01"}, "budget"},
		{"bad date", types.ProjectInput{Name: "a", Location: "b", Budget: 1, StartDate: "15/01/2025"}, "startDate"},
		{"negative breakdown", types.ProjectInput{Name: "a", Location: "b", Budget: 1, StartDate: "2025-01-01",
			BudgetBreakdown: &types.BudgetBreakdown{Other: -1}}, "budgetBreakdown.other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.CreateProject(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	all, err := r.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProjects_DeleteWithChildren(t *testing.T) {
	r, st := newTestRepo(t)
	ctx := context.Background()

	p := createProject(t, r)
	_, err := r.CreateWorker(ctx, workerInput(p.ID))
	require.NoError(t, err)
	_, err = r.CreateExpense(ctx, types.ExpenseInput{ProjectID: p.ID, Amount: 300})
	require.NoError(t, err)

	_, err = r.DeleteProject(ctx, p.ID, false)
	assert.ErrorIs(t, err, ErrProjectHasChildren)

	children, err := r.ProjectChildren(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProjectChildren{Workers: 1, Expenses: 1}, children)

	res, err := r.DeleteProject(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
	assert.Equal(t, int64(1), res.Children.Workers)
	assert.Equal(t, int64(1), res.Children.Expenses)

	n, err := st.Count(ctx, docstore.Workers, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorkers_CRUD(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	p := createProject(t, r)

	w, err := r.CreateWorker(ctx, workerInput(p.ID))
	require.NoError(t, err)
	assert.Equal(t, types.Amount(5000), w.TotalCost)

	list, err := r.ListWorkers(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, w.ID, list[0].ID)

	other, err := r.ListWorkers(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	days := types.Amount(12)
	updated, err := r.UpdateWorker(ctx, w.ID, types.WorkerPatch{DaysWorked: &days})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, types.Amount(12), updated.DaysWorked)
	assert.Equal(t, types.Amount(6000), updated.TotalCost)
	assert.Equal(t, "Ravi", updated.Name)

	total := types.Amount(7000)
	updated, err = r.UpdateWorker(ctx, w.ID, types.WorkerPatch{DaysWorked: &days, TotalCost: &total})
	require.NoError(t, err)
	assert.Equal(t, types.Amount(7000), updated.TotalCost)

	n, err := r.DeleteWorker(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.DeleteWorker(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestWorkers_Validation(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	p := createProject(t, r)

	in := workerInput(p.ID)
	in.Category = "Plumber"
	_, err := r.CreateWorker(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = workerInput(p.ID)
	in.DailyWage = 0
	_, err = r.CreateWorker(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = workerInput("")
	_, err = r.CreateWorker(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.CreateWorker(ctx, workerInput("nope"))
	assert.ErrorIs(t, err, ErrProjectNotFound)

	empty := ""
	w, err := r.CreateWorker(ctx, workerInput(p.ID))
	require.NoError(t, err)
	_, err = r.UpdateWorker(ctx, w.ID, types.WorkerPatch{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWorkers_UpdateMissing(t *testing.T) {
	r, _ := newTestRepo(t)
	days := types.Amount(3)
	w, err := r.UpdateWorker(context.Background(), "missing", types.WorkerPatch{DaysWorked: &days})
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestMaterials_CRUD(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	p := createProject(t, r)

	m, err := r.CreateMaterial(ctx, types.MaterialInput{
		ProjectID: p.ID, Name: "OPC 53", Category: "Cement", Quantity: 40, Unit: "bag", UnitPrice: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, types.Amount(2000), m.TotalCost)

	price := types.Amount(60)
	updated, err := r.UpdateMaterial(ctx, m.ID, types.MaterialPatch{UnitPrice: &price})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, types.Amount(2400), updated.TotalCost)

	_, err = r.CreateMaterial(ctx, types.MaterialInput{ProjectID: p.ID, Name: "Sand", Quantity: 0, Unit: "t"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := r.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "bag", got.Unit)

	n, err := r.DeleteMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEquipment_RentalRule(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	p := createProject(t, r)

	in := types.EquipmentInput{
		ProjectID: p.ID, Name: "Mixer", Category: "Machinery",
		Status: types.EquipmentAvailable, Ownership: types.Rented, TotalCost: 1500,
	}
	_, err := r.CreateEquipment(ctx, in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "rentalRate", verr.Field)

	in.RentalRate = 250
	e, err := r.CreateEquipment(ctx, in)
	require.NoError(t, err)

	zero := types.Amount(0)
	_, err = r.UpdateEquipment(ctx, e.ID, types.EquipmentPatch{RentalRate: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)

	owned := types.Owned
	updated, err := r.UpdateEquipment(ctx, e.ID, types.EquipmentPatch{Ownership: &owned, RentalRate: &zero})
	require.NoError(t, err)
	assert.Equal(t, types.Owned, updated.Ownership)

	bad := types.EquipmentStatus("Lost")
	_, err = r.UpdateEquipment(ctx, e.ID, types.EquipmentPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := r.ListEquipment(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := r.DeleteEquipment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExpenses_CRUD(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	p := createProject(t, r)

	e, err := r.CreateExpense(ctx, types.ExpenseInput{ProjectID: p.ID, Amount: 300, Date: "2025-02-01"})
	require.NoError(t, err)
	assert.Equal(t, DefaultExpenseCategory, e.Category)

	_, err = r.CreateExpense(ctx, types.ExpenseInput{ProjectID: p.ID, Amount: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.CreateExpense(ctx, types.ExpenseInput{ProjectID: p.ID, Amount: 1, Date: "tomorrow"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cat := "Permits"
	updated, err := r.UpdateExpense(ctx, e.ID, types.ExpensePatch{Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, "Permits", updated.Category)
	assert.Equal(t, types.Amount(300), updated.Amount)

	got, err := r.GetExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Permits", got.Category)

	n, err := r.DeleteExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
