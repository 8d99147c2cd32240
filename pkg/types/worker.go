package types

import "time"

// WorkerCategory is the trade of a worker.
type WorkerCategory string

const (
	WorkerMason       WorkerCategory = "Mason"
	WorkerHelper      WorkerCategory = "Helper"
	WorkerElectrician WorkerCategory = "Electrician"
	WorkerCarpenter   WorkerCategory = "Carpenter"
)

// WorkerCategories lists the accepted worker categories in display order.
var WorkerCategories = []WorkerCategory{WorkerMason, WorkerHelper, WorkerElectrician, WorkerCarpenter}

// Valid reports whether c is a known category.
func (c WorkerCategory) Valid() bool {
	for _, known := range WorkerCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Worker is a labourer assigned to a project.
type Worker struct {
	ID         ID             `json:"_id"`
	ProjectID  ID             `json:"projectId"`
	Name       string         `json:"name"`
	Category   WorkerCategory `json:"category"`
	Phone      string         `json:"phone"`
	DailyWage  Amount         `json:"dailyWage"`
	DaysWorked Amount         `json:"daysWorked"`
	Experience Amount         `json:"experience,omitempty"`
	TotalCost  Amount         `json:"totalCost"`
	Tools      []string       `json:"tools,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  *time.Time     `json:"updatedAt,omitempty"`
}

// LabourCost is the cost this worker contributes to a project. A stored
// non-zero total wins over wage times days.
func (w Worker) LabourCost() float64 {
	if w.TotalCost != 0 {
		return w.TotalCost.Float64()
	}
	return w.DailyWage.Float64() * w.DaysWorked.Float64()
}

// WorkerInput is the payload accepted when creating a worker.
type WorkerInput struct {
	ProjectID  ID             `json:"projectId"`
	Name       string         `json:"name"`
	Category   WorkerCategory `json:"category"`
	Phone      string         `json:"phone"`
	DailyWage  Amount         `json:"dailyWage"`
	DaysWorked Amount         `json:"daysWorked"`
	Experience Amount         `json:"experience,omitempty"`
	TotalCost  Amount         `json:"totalCost,omitempty"`
	Tools      []string       `json:"tools,omitempty"`
	Notes      string         `json:"notes,omitempty"`
}

// WorkerPatch is a partial update. Nil fields are left untouched.
type WorkerPatch struct {
	Name       *string         `json:"name,omitempty"`
	Category   *WorkerCategory `json:"category,omitempty"`
	Phone      *string         `json:"phone,omitempty"`
	DailyWage  *Amount         `json:"dailyWage,omitempty"`
	DaysWorked *Amount         `json:"daysWorked,omitempty"`
	Experience *Amount         `json:"experience,omitempty"`
	TotalCost  *Amount         `json:"totalCost,omitempty"`
	Tools      *[]string       `json:"tools,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}
