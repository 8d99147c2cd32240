package types

import "time"

// Expense is any project cost that is not labour, material or equipment.
type Expense struct {
	ID          ID         `json:"_id"`
	ProjectID   ID         `json:"projectId"`
	Amount      Amount     `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	Date        string     `json:"date,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ExpenseInput is the payload accepted when recording an expense.
type ExpenseInput struct {
	ProjectID   ID     `json:"projectId"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// ExpensePatch is a partial update. Nil fields are left untouched.
type ExpensePatch struct {
	Amount      *Amount `json:"amount,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
}
