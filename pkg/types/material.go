package types

import "time"

// MaterialCategories are the categories offered for materials. Other values
// are accepted as free text.
var MaterialCategories = []string{"Cement", "Steel", "Bricks", "Sand", "Gravel", "Wood", "Paint", "Other"}

// Material is a purchased consumable.
type Material struct {
	ID        ID         `json:"_id"`
	ProjectID ID         `json:"projectId"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Quantity  Amount     `json:"quantity"`
	Unit      string     `json:"unit"`
	UnitPrice Amount     `json:"unitPrice"`
	TotalCost Amount     `json:"totalCost"`
	Supplier  string     `json:"supplier,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// MaterialInput is the payload accepted when creating a material.
type MaterialInput struct {
	ProjectID ID     `json:"projectId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  Amount `json:"quantity"`
	Unit      string `json:"unit"`
	UnitPrice Amount `json:"unitPrice"`
	TotalCost Amount `json:"totalCost,omitempty"`
	Supplier  string `json:"supplier,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// MaterialPatch is a partial update. Nil fields are left untouched.
type MaterialPatch struct {
	Name      *string `json:"name,omitempty"`
	Category  *string `json:"category,omitempty"`
	Quantity  *Amount `json:"quantity,omitempty"`
	Unit      *string `json:"unit,omitempty"`
	UnitPrice *Amount `json:"unitPrice,omitempty"`
	TotalCost *Amount `json:"totalCost,omitempty"`
	Supplier  *string `json:"supplier,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}
