package types

import "time"

// DateLayout is the layout of calendar dates such as Project.StartDate.
const DateLayout = "2006-01-02"

// Project is a construction project. Workers, materials, equipment and
// expenses reference it through their ProjectID.
type Project struct {
	ID              ID               `json:"_id"`
	Name            string           `json:"name"`
	Location        string           `json:"location"`
	Description     string           `json:"description,omitempty"`
	Budget          Amount           `json:"budget"`
	BudgetBreakdown *BudgetBreakdown `json:"budgetBreakdown,omitempty"`
	StartDate       string           `json:"startDate"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
}

// BudgetBreakdown is the planned split of a project budget.
type BudgetBreakdown struct {
	Labour    Amount `json:"labour"`
	Materials Amount `json:"materials"`
	Equipment Amount `json:"equipment"`
	Other     Amount `json:"other"`
}

// ProjectInput is the payload accepted when creating a project.
type ProjectInput struct {
	Name            string           `json:"name"`
	Location        string           `json:"location"`
	Description     string           `json:"description,omitempty"`
	Budget          Amount           `json:"budget"`
	BudgetBreakdown *BudgetBreakdown `json:"budgetBreakdown,omitempty"`
	StartDate       string           `json:"startDate"`
}

// ProjectPatch is a partial update. Nil fields are left untouched.
type ProjectPatch struct {
	Name            *string          `json:"name,omitempty"`
	Location        *string          `json:"location,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Budget          *Amount          `json:"budget,omitempty"`
	BudgetBreakdown *BudgetBreakdown `json:"budgetBreakdown,omitempty"`
	StartDate       *string          `json:"startDate,omitempty"`
}

// ProjectChildren counts the records that reference a project.
type ProjectChildren struct {
	Workers   int64 `json:"workers"`
	Materials int64 `json:"materials"`
	Equipment int64 `json:"equipment"`
	Expenses  int64 `json:"expenses"`
}

// Total returns the number of child records.
func (c ProjectChildren) Total() int64 {
	return c.Workers + c.Materials + c.Equipment + c.Expenses
}
