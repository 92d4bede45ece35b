package study

import (
	"fmt"
	"math"
)

// RMSE returns the root-mean-square error between two equally sized series.
func RMSE(predicted, observed []float64) (float64, error) {
	if len(predicted) != len(observed) {
		return 0, fmt.Errorf("series lengths differ: %d vs %d", len(predicted), len(observed))
	}
	if len(predicted) == 0 {
		return 0, fmt.Errorf("empty series")
	}
	var sum float64
	for i := range predicted {
		d := predicted[i] - observed[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(predicted))), nil
}

// ConvergenceRow is one grid level in a convergence table.
type ConvergenceRow struct {
	Spacing float64
	Value   float64
	Order   float64 // NaN on the first row
}

// Convergence computes the observed order of accuracy between successive
// grid levels from characteristic spacings and the quantity of interest on
// each level, using the finest level's value as the reference. Inputs must
// be ordered coarse to fine with strictly decreasing spacing.
func Convergence(spacings, values []float64) ([]ConvergenceRow, error) {
	if len(spacings) != len(values) {
		return nil, fmt.Errorf("series lengths differ: %d vs %d", len(spacings), len(values))
	}
	if len(spacings) < 3 {
		return nil, fmt.Errorf("need at least 3 grid levels, got %d", len(spacings))
	}
	for i := 1; i < len(spacings); i++ {
		if spacings[i] >= spacings[i-1] {
			return nil, fmt.Errorf("spacings must strictly decrease: %g then %g", spacings[i-1], spacings[i])
		}
	}

	ref := values[len(values)-1]
	rows := make([]ConvergenceRow, len(spacings))
	for i := range spacings {
		rows[i] = ConvergenceRow{Spacing: spacings[i], Value: values[i], Order: math.NaN()}
		if i == 0 || i == len(spacings)-1 {
			continue
		}
		eCoarse := math.Abs(values[i-1] - ref)
		eFine := math.Abs(values[i] - ref)
		if eFine == 0 || eCoarse == 0 {
			continue
		}
		rows[i].Order = math.Log(eCoarse/eFine) / math.Log(spacings[i-1]/spacings[i])
	}
	return rows, nil
}
