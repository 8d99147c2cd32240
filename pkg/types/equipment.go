package types

import "time"

// EquipmentStatus is the availability of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentAvailable        EquipmentStatus = "Available"
	EquipmentInUse            EquipmentStatus = "In Use"
	EquipmentUnderMaintenance EquipmentStatus = "Under Maintenance"
	EquipmentRetired          EquipmentStatus = "Retired"
)

// EquipmentStatuses lists the accepted statuses in display order.
var EquipmentStatuses = []EquipmentStatus{EquipmentAvailable, EquipmentInUse, EquipmentUnderMaintenance, EquipmentRetired}

// Valid reports whether s is a known status.
func (s EquipmentStatus) Valid() bool {
	for _, known := range EquipmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Ownership says whether equipment is owned or rented.
type Ownership string

const (
	Owned  Ownership = "Owned"
	Rented Ownership = "Rented"
)

// Valid reports whether o is Owned or Rented.
func (o Ownership) Valid() bool { return o == Owned || o == Rented }

// EquipmentCategories are the categories offered for equipment.
var EquipmentCategories = []string{"Machinery", "Tools", "Vehicles", "Safety Equipment", "Other"}

// Equipment is a machine, tool or vehicle used on a project.
type Equipment struct {
	ID         ID              `json:"_id"`
	ProjectID  ID              `json:"projectId"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Status     EquipmentStatus `json:"status"`
	Ownership  Ownership       `json:"ownership"`
	TotalCost  Amount          `json:"totalCost"`
	RentalRate Amount          `json:"rentalRate,omitempty"`
	Supplier   string          `json:"supplier,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  *time.Time      `json:"updatedAt,omitempty"`
}

// EquipmentInput is the payload accepted when creating equipment.
type EquipmentInput struct {
	ProjectID  ID              `json:"projectId"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Status     EquipmentStatus `json:"status"`
	Ownership  Ownership       `json:"ownership"`
	TotalCost  Amount          `json:"totalCost"`
	RentalRate Amount          `json:"rentalRate,omitempty"`
	Supplier   string          `json:"supplier,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// EquipmentPatch is a partial update. Nil fields are left untouched.
type EquipmentPatch struct {
	Name       *string          `json:"name,omitempty"`
	Category   *string          `json:"category,omitempty"`
	Status     *EquipmentStatus `json:"status,omitempty"`
	Ownership  *Ownership       `json:"ownership,omitempty"`
	TotalCost  *Amount          `json:"totalCost,omitempty"`
	RentalRate *Amount          `json:"rentalRate,omitempty"`
	Supplier   *string          `json:"supplier,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}
