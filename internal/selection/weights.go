package selection

import (
	"fmt"
	"maps"
	"math"

	"github.com/spigell/welfare-interviewer/internal/programs"
)

// DefaultWeight applies to fields without an explicit weight.
const DefaultWeight = 1.0

// Weights scales the informativeness of a field. Weights are positive.
type Weights map[string]float64

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		programs.ColumnCitizensOnly:          0.5,
		programs.ColumnHouseholdSize:         1.5,
		programs.ColumnEmploymentRequired:    1.2,
		programs.ColumnVeteran:               1.1,
		programs.ColumnForChildren:           1.2,
		programs.ColumnCriminalDisqualifying: 1.2,
	}
}

// Of returns the weight of field.
func (w Weights) Of(field string) float64 {
	if v, ok := w[field]; ok {
		return v
	}
	return DefaultWeight
}

// With returns a copy of w with overrides applied on top.
func (w Weights) With(overrides map[string]float64) Weights {
	out := make(Weights, len(w)+len(overrides))
	maps.Copy(out, w)
	maps.Copy(out, overrides)
	return out
}

// Validate rejects non-positive or non-finite weights.
func (w Weights) Validate() error {
	for field, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("weight for %q must be a positive number, got %v", field, v)
		}
	}
	return nil
}
