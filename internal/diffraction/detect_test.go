package diffraction

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestDetectPeaksSingleGaussian(t *testing.T) {
	q := linspace(1, 10, 500)
	y := make([]float64, len(q))
	for i, x := range q {
		d := (x - 5.0) / 0.2
		y[i] = 1000 * math.Exp(-0.5*d*d)
	}

	got := detectPeaks(q, y, DetectionConfig{MinProminence: fptr(0.01), MinDistance: fptr(0.1)})
	if len(got) != 1 {
		t.Fatalf("detected %d peaks, want 1: %v", len(got), got)
	}
	if math.Abs(q[got[0]]-5.0) > 0.05 {
		t.Errorf("peak at Q=%v, want ~5.0", q[got[0]])
	}
}

func TestDetectPeaksFlat(t *testing.T) {
	q := linspace(1, 10, 100)
	y := make([]float64, len(q))
	for i := range y {
		y[i] = 7.5
	}

	got := detectPeaks(q, y, DetectionConfig{MinProminence: fptr(0.01)})
	if len(got) != 0 {
		t.Errorf("detected %d peaks on a flat signal, want 0", len(got))
	}
}

func TestDetectPeaksTooShort(t *testing.T) {
	if got := detectPeaks([]float64{1, 2}, []float64{0, 1}, DetectionConfig{}); len(got) != 0 {
		t.Errorf("two samples cannot hold a local maximum, got %v", got)
	}
}

func TestDetectPeaksHeightThreshold(t *testing.T) {
	q := linspace(0, 20, 400)
	y := make([]float64, len(q))
	for i, x := range q {
		d1 := (x - 5.0) / 0.3
		d2 := (x - 15.0) / 0.3
		y[i] = 1000*math.Exp(-0.5*d1*d1) + 200*math.Exp(-0.5*d2*d2)
	}

	// The short peak is 20% of the maximum; a 50% height floor drops it.
	got := detectPeaks(q, y, DetectionConfig{MinHeight: fptr(0.5), MinDistance: fptr(0.1)})
	if len(got) != 1 {
		t.Fatalf("detected %d peaks, want 1: %v", len(got), got)
	}
	if math.Abs(q[got[0]]-5.0) > 0.1 {
		t.Errorf("kept peak at Q=%v, want the tall one near 5.0", q[got[0]])
	}

	// Without the floor both qualify.
	got = detectPeaks(q, y, DetectionConfig{MinDistance: fptr(0.1)})
	if len(got) != 2 {
		t.Errorf("detected %d peaks without height floor, want 2: %v", len(got), got)
	}
}

func TestDetectPeaksProminenceThreshold(t *testing.T) {
	q := linspace(0, 10, 200)
	y := make([]float64, len(q))
	for i, x := range q {
		d := (x - 5.0) / 0.4
		y[i] = 1000 * math.Exp(-0.5*d*d)
	}
	// A tiny ripple on the flank: local maximum, negligible prominence.
	y[30] += 2.0

	got := detectPeaks(q, y, DetectionConfig{MinProminence: fptr(0.01), MinDistance: fptr(0.1)})
	if len(got) != 1 {
		t.Fatalf("detected %d peaks, want the ripple filtered out: %v", len(got), got)
	}
}

func TestDetectPeaksMinDistanceKeepsTaller(t *testing.T) {
	q := linspace(0, 10, 101) // 0.1 spacing
	y := make([]float64, len(q))
	y[50] = 100
	y[52] = 80

	// 0.5 Q-units = 5 samples; the two maxima are 2 apart so only the
	// taller survives.
	got := detectPeaks(q, y, DetectionConfig{MinDistance: fptr(0.5)})
	if len(got) != 1 || got[0] != 50 {
		t.Errorf("got %v, want [50]", got)
	}

	// With a tight distance both survive, returned in ascending order.
	got = detectPeaks(q, y, DetectionConfig{MinDistance: fptr(0.1)})
	if len(got) != 2 || got[0] != 50 || got[1] != 52 {
		t.Errorf("got %v, want [50 52]", got)
	}
}

func TestDetectPeaksWidthBounds(t *testing.T) {
	q := linspace(0, 20, 2001) // 0.01 spacing
	y := make([]float64, len(q))
	for i, x := range q {
		dNarrow := (x - 5.0) / 0.05
		dWide := (x - 15.0) / 0.8
		y[i] = 1000*math.Exp(-0.5*dNarrow*dNarrow) + 1000*math.Exp(-0.5*dWide*dWide)
	}

	// Only the wide peak passes a 0.5 Q-unit minimum width.
	got := detectPeaks(q, y, DetectionConfig{MinDistance: fptr(0.1), MinWidth: fptr(0.5)})
	if len(got) != 1 {
		t.Fatalf("detected %d peaks, want 1: %v", len(got), got)
	}
	if math.Abs(q[got[0]]-15.0) > 0.1 {
		t.Errorf("kept peak at Q=%v, want the wide one near 15", q[got[0]])
	}

	// Only the narrow peak passes a 0.5 Q-unit maximum width.
	got = detectPeaks(q, y, DetectionConfig{MinDistance: fptr(0.1), MaxWidth: fptr(0.5)})
	if len(got) != 1 {
		t.Fatalf("detected %d peaks, want 1: %v", len(got), got)
	}
	if math.Abs(q[got[0]]-5.0) > 0.1 {
		t.Errorf("kept peak at Q=%v, want the narrow one near 5", q[got[0]])
	}
}

func TestMedianStep(t *testing.T) {
	if got := medianStep([]float64{0, 1, 2, 3}); got != 1 {
		t.Errorf("medianStep = %v, want 1", got)
	}
	// Robust to one irregular gap.
	if got := medianStep([]float64{0, 1, 2, 10}); got != 1 {
		t.Errorf("medianStep = %v, want 1", got)
	}
	if got := medianStep([]float64{5}); got != 0 {
		t.Errorf("medianStep = %v, want 0 for a single sample", got)
	}
}

func TestProminenceStopsAtHigherPeak(t *testing.T) {
	// The small peak's left walk stops at the taller neighbour, so its
	// prominence is measured from the valley between them.
	y := []float64{0, 10, 2, 5, 0}
	if got := prominence(y, 3); got != 3 {
		t.Errorf("prominence = %v, want 3 (5 above the valley at 2)", got)
	}
	if got := prominence(y, 1); got != 10 {
		t.Errorf("prominence = %v, want 10 for the dominant peak", got)
	}
}
