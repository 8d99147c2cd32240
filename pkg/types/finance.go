package types

// FinancialSummary is the cost of a project per category.
type FinancialSummary struct {
	LabourCost    float64 `json:"labourCost"`
	MaterialCost  float64 `json:"materialCost"`
	EquipmentCost float64 `json:"equipmentCost"`
	OtherExpenses float64 `json:"otherExpenses"`
	TotalCost     float64 `json:"totalCost"`
}

// BudgetLine compares actual spend in one category against its planned budget.
type BudgetLine struct {
	Category    string  `json:"category"`
	Spent       float64 `json:"spent"`
	Planned     float64 `json:"planned"`
	Utilization float64 `json:"utilization"` // percent of planned, 0 when nothing is planned
	OverBudget  bool    `json:"overBudget"`
}

// BudgetReport is a project's budget position.
type BudgetReport struct {
	ProjectID   ID               `json:"projectId"`
	Budget      float64          `json:"budget"`
	Spent       float64          `json:"spent"`
	Remaining   float64          `json:"remaining"`
	Utilization float64          `json:"utilization"`
	OverBudget  bool             `json:"overBudget"`
	Summary     FinancialSummary `json:"summary"`
	Lines       []BudgetLine     `json:"lines"`
}

// NewBudgetLine computes utilization for one category.
func NewBudgetLine(category string, spent, planned float64) BudgetLine {
	line := BudgetLine{Category: category, Spent: spent, Planned: planned}
	if planned > 0 {
		line.Utilization = spent * 100 / planned
		line.OverBudget = spent > planned
	}
	return line
}

// NewBudgetReport puts a summary next to a project's budget.
func NewBudgetReport(p Project, s FinancialSummary) BudgetReport {
	var plan BudgetBreakdown
	if p.BudgetBreakdown != nil {
		plan = *p.BudgetBreakdown
	}

	r := BudgetReport{
		ProjectID: p.ID,
		Budget:    p.Budget.Float64(),
		Spent:     s.TotalCost,
		Remaining: p.Budget.Float64() - s.TotalCost,
		Summary:   s,
		Lines: []BudgetLine{
			NewBudgetLine("labour", s.LabourCost, plan.Labour.Float64()),
			NewBudgetLine("materials", s.MaterialCost, plan.Materials.Float64()),
			NewBudgetLine("equipment", s.EquipmentCost, plan.Equipment.Float64()),
			NewBudgetLine("other", s.OtherExpenses, plan.Other.Float64()),
		},
	}
	if r.Budget > 0 {
		r.Utilization = r.Spent * 100 / r.Budget
	}
	r.OverBudget = r.Spent > r.Budget
	return r
}
