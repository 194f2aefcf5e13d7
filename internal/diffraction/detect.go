package diffraction

import (
	"math"
	"sort"
)

// detectPeaks scans background-subtracted intensities for local maxima
// satisfying the configured thresholds. Thresholds expressed in fractions or
// Q-units are converted to absolute intensities and sample-index units
// first; the median Q step serves as the canonical sampling pitch so the
// conversion tolerates locally uneven sampling. Returned indices are in
// ascending Q order; an empty result is not an error.
func detectPeaks(q, intensity []float64, cfg DetectionConfig) []int {
	n := len(intensity)
	if n < 3 {
		return []int{}
	}

	qSpacing := medianStep(q)

	minDist := 1
	if cfg.MinDistance != nil && qSpacing > 0 {
		minDist = int(math.Round(*cfg.MinDistance / qSpacing))
		if minDist < 1 {
			minDist = 1
		}
	}

	heightThreshold := math.Inf(-1)
	if cfg.MinHeight != nil {
		maxI := intensity[0]
		for _, v := range intensity {
			if v > maxI {
				maxI = v
			}
		}
		heightThreshold = *cfg.MinHeight * maxI
	}

	prominenceThreshold := 0.0
	checkProminence := cfg.MinProminence != nil
	if checkProminence {
		minI, maxI := intensity[0], intensity[0]
		for _, v := range intensity {
			if v < minI {
				minI = v
			}
			if v > maxI {
				maxI = v
			}
		}
		prominenceThreshold = *cfg.MinProminence * (maxI - minI)
	}

	minWidthIdx := math.Inf(-1)
	maxWidthIdx := math.Inf(1)
	checkWidth := false
	if cfg.MinWidth != nil && qSpacing > 0 {
		w := math.Round(*cfg.MinWidth / qSpacing)
		if w < 1 {
			w = 1
		}
		minWidthIdx = w
		checkWidth = true
	}
	if cfg.MaxWidth != nil && qSpacing > 0 {
		maxWidthIdx = math.Round(*cfg.MaxWidth / qSpacing)
		checkWidth = true
	}

	// Candidate pass: strict local maxima above the height threshold with
	// sufficient prominence and in-bounds width.
	type candidate struct {
		idx        int
		height     float64
		prominence float64
	}
	var candidates []candidate
	for i := 1; i < n-1; i++ {
		v := intensity[i]
		if v <= intensity[i-1] || v <= intensity[i+1] {
			continue
		}
		if v < heightThreshold {
			continue
		}
		prom := prominence(intensity, i)
		if checkProminence && prom < prominenceThreshold {
			continue
		}
		if checkWidth {
			w := widthAtHalfProminence(intensity, i, prom)
			if w < minWidthIdx || w > maxWidthIdx {
				continue
			}
		}
		candidates = append(candidates, candidate{idx: i, height: v, prominence: prom})
	}

	// Distance pass: keep the taller of any two candidates closer than the
	// minimum index separation.
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].height != candidates[b].height {
			return candidates[a].height > candidates[b].height
		}
		return candidates[a].idx < candidates[b].idx
	})
	kept := make([]int, 0, len(candidates))
	for _, c := range candidates {
		tooClose := false
		for _, k := range kept {
			if abs(c.idx-k) < minDist {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, c.idx)
		}
	}

	sort.Ints(kept)
	return kept
}

// medianStep returns the median of successive Q differences.
func medianStep(q []float64) float64 {
	if len(q) < 2 {
		return 0
	}
	diffs := make([]float64, len(q)-1)
	for i := 1; i < len(q); i++ {
		diffs[i-1] = q[i] - q[i-1]
	}
	sort.Float64s(diffs)
	m := len(diffs)
	if m%2 == 1 {
		return diffs[m/2]
	}
	return 0.5 * (diffs[m/2-1] + diffs[m/2])
}

// prominence measures how far the peak at i rises above the higher of the
// two valleys that bound it. The walk on each side stops when the signal
// climbs above the peak's own height.
func prominence(intensity []float64, i int) float64 {
	peak := intensity[i]

	leftMin := peak
	for j := i - 1; j >= 0; j-- {
		if intensity[j] < leftMin {
			leftMin = intensity[j]
		}
		if intensity[j] > peak {
			break
		}
	}

	rightMin := peak
	for j := i + 1; j < len(intensity); j++ {
		if intensity[j] < rightMin {
			rightMin = intensity[j]
		}
		if intensity[j] > peak {
			break
		}
	}

	return peak - math.Max(leftMin, rightMin)
}

// widthAtHalfProminence estimates the peak width in index units at the
// half-prominence height, interpolating the crossing on each flank.
func widthAtHalfProminence(intensity []float64, i int, prom float64) float64 {
	level := intensity[i] - prom/2

	left := float64(0)
	for j := i - 1; j >= 0; j-- {
		if intensity[j] <= level {
			left = float64(j)
			if intensity[j+1] != intensity[j] {
				left += (level - intensity[j]) / (intensity[j+1] - intensity[j])
			}
			break
		}
		if j == 0 {
			left = 0
		}
	}

	right := float64(len(intensity) - 1)
	for j := i + 1; j < len(intensity); j++ {
		if intensity[j] <= level {
			right = float64(j)
			if intensity[j-1] != intensity[j] {
				right -= (level - intensity[j]) / (intensity[j-1] - intensity[j])
			}
			break
		}
	}

	return right - left
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
