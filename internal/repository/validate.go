package repository

import (
	"strings"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// validator records the first failed rule. Nil pointers are fields absent
// from a patch and are skipped; create paths pass every field.
type validator struct {
	err error
}

func (v *validator) fail(field, message string) {
	if v.err == nil {
		v.err = &ValidationError{Field: field, Message: message}
	}
}

func (v *validator) required(field string, value *string) {
	if value != nil && strings.TrimSpace(*value) == "" {
		v.fail(field, "is required")
	}
}

func (v *validator) positive(field string, value *types.Amount) {
	if value != nil && *value <= 0 {
		v.fail(field, "must be greater than 0")
	}
}

func (v *validator) nonNegative(field string, value *types.Amount) {
	if value != nil && *value < 0 {
		v.fail(field, "must not be negative")
	}
}

func (v *validator) date(field string, value *string) {
	if value == nil {
		return
	}
	if strings.TrimSpace(*value) == "" {
		v.fail(field, "is required")
		return
	}
	if _, err := time.Parse(types.DateLayout, *value); err != nil {
		v.fail(field, "must be a date in YYYY-MM-DD format")
	}
}

func (v *validator) optionalDate(field string, value *string) {
	if value != nil && *value != "" {
		v.date(field, value)
	}
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.fail(field, message)
	}
}

type projectFields struct {
	Name, Location, StartDate *string
	Budget                    *types.Amount
	Breakdown                 *types.BudgetBreakdown
}

func validateProject(f projectFields) error {
	var v validator
	v.required("name", f.Name)
	v.required("location", f.Location)
	v.positive("budget", f.Budget)
	v.date("startDate", f.StartDate)
	if b := f.Breakdown; b != nil {
		v.nonNegative("budgetBreakdown.labour", &b.Labour)
		v.nonNegative("budgetBreakdown.materials", &b.Materials)
		v.nonNegative("budgetBreakdown.equipment", &b.Equipment)
		v.nonNegative("budgetBreakdown.other", &b.Other)
	}
	return v.err
}

type workerFields struct {
	Name, Phone                       *string
	Category                          *types.WorkerCategory
	DailyWage, DaysWorked, Experience *types.Amount
	TotalCost                         *types.Amount
}

func validateWorker(f workerFields) error {
	var v validator
	v.required("name", f.Name)
	v.required("phone", f.Phone)
	if f.Category != nil {
		v.check(f.Category.Valid(), "category", "must be one of Mason, Helper, Electrician, Carpenter")
	}
	v.positive("dailyWage", f.DailyWage)
	v.nonNegative("daysWorked", f.DaysWorked)
	v.nonNegative("experience", f.Experience)
	v.nonNegative("totalCost", f.TotalCost)
	return v.err
}

type materialFields struct {
	Name, Unit, Category           *string
	Quantity, UnitPrice, TotalCost *types.Amount
}

func validateMaterial(f materialFields) error {
	var v validator
	v.required("name", f.Name)
	v.positive("quantity", f.Quantity)
	v.nonNegative("unitPrice", f.UnitPrice)
	v.required("unit", f.Unit)
	v.nonNegative("totalCost", f.TotalCost)
	return v.err
}

type equipmentFields struct {
	Name                  *string
	Status                *types.EquipmentStatus
	Ownership             *types.Ownership
	TotalCost, RentalRate *types.Amount
}

func validateEquipment(f equipmentFields) error {
	var v validator
	v.required("name", f.Name)
	v.nonNegative("totalCost", f.TotalCost)
	if f.Status != nil {
		v.check(f.Status.Valid(), "status", "must be one of Available, In Use, Under Maintenance, Retired")
	}
	if f.Ownership != nil {
		v.check(f.Ownership.Valid(), "ownership", "must be Owned or Rented")
	}
	v.nonNegative("rentalRate", f.RentalRate)
	return v.err
}

// validateRental applies the cross-field rule on the merged record.
func validateRental(ownership types.Ownership, rate types.Amount) error {
	if ownership == types.Rented && rate <= 0 {
		return &ValidationError{Field: "rentalRate", Message: "must be greater than 0 for rented equipment"}
	}
	return nil
}

type expenseFields struct {
	Amount *types.Amount
	Date   *string
}

func validateExpense(f expenseFields) error {
	var v validator
	v.positive("amount", f.Amount)
	v.optionalDate("date", f.Date)
	return v.err
}

func validateProjectRef(id types.ID) error {
	if id.IsZero() {
		return &ValidationError{Field: "projectId", Message: "is required"}
	}
	return nil
}
