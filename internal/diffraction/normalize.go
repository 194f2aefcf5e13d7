package diffraction

import (
	"math"
	"sort"
)

// validateInput enforces the Analyze preconditions: equal non-zero lengths
// and finite values throughout. Violations stop analysis before any
// numerical work begins.
func validateInput(q, intensity []float64) error {
	if len(q) == 0 {
		return validationErr("q_values", "must not be empty")
	}
	if len(intensity) == 0 {
		return validationErr("intensities", "must not be empty")
	}
	if len(q) != len(intensity) {
		return validationErr("", "q_values and intensities must have the same length (%d != %d)", len(q), len(intensity))
	}
	for i, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validationErr("q_values", "non-finite value at index %d", i)
		}
	}
	for i, v := range intensity {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validationErr("intensities", "non-finite value at index %d", i)
		}
	}
	return nil
}

// sortPattern returns copies of q and intensity reordered by ascending Q.
// The sort is stable so equal Q values keep their input order. The caller's
// slices are never modified.
func sortPattern(q, intensity []float64) ([]float64, []float64) {
	idx := make([]int, len(q))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return q[idx[a]] < q[idx[b]] })

	sortedQ := make([]float64, len(q))
	sortedI := make([]float64, len(intensity))
	for i, j := range idx {
		sortedQ[i] = q[j]
		sortedI[i] = intensity[j]
	}
	return sortedQ, sortedI
}
