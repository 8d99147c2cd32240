// Package estimate holds the stateless cost calculators offered next to
// the project ledger.
package estimate

import (
	"fmt"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// WageInput describes a crew for the wage calculator.
type WageInput struct {
	Workers   types.Amount `json:"workers"`
	DailyWage types.Amount `json:"dailyWage"`
	Days      types.Amount `json:"days"`
}

// WageEstimate is the labour cost of a crew.
type WageEstimate struct {
	PerWorker float64 `json:"perWorker"`
	Total     float64 `json:"total"`
}

// AreaInput describes a surface priced per unit of area.
type AreaInput struct {
	Area types.Amount `json:"area"`
	Rate types.Amount `json:"rate"`
}

// AreaEstimate is the cost of covering an area.
type AreaEstimate struct {
	Total float64 `json:"total"`
}

// Wage returns the cost of paying the crew for the given days.
func Wage(in WageInput) (WageEstimate, error) {
	if err := nonNegative("workers", in.Workers); err != nil {
		return WageEstimate{}, err
	}
	if err := nonNegative("dailyWage", in.DailyWage); err != nil {
		return WageEstimate{}, err
	}
	if err := nonNegative("days", in.Days); err != nil {
		return WageEstimate{}, err
	}
	per := in.DailyWage.Float64() * in.Days.Float64()
	return WageEstimate{PerWorker: per, Total: per * in.Workers.Float64()}, nil
}

// Area returns area times rate.
func Area(in AreaInput) (AreaEstimate, error) {
	if err := nonNegative("area", in.Area); err != nil {
		return AreaEstimate{}, err
	}
	if err := nonNegative("rate", in.Rate); err != nil {
		return AreaEstimate{}, err
	}
	return AreaEstimate{Total: in.Area.Float64() * in.Rate.Float64()}, nil
}

func nonNegative(field string, v types.Amount) error {
	if v < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}
