package diffraction

import (
	"fmt"
	"math"
	"time"
)

// EngineVersion tags results produced by this build of the engine.
const EngineVersion = "1.0.0"

// Engine performs complete peak analysis on diffraction patterns. It holds
// no mutable state; a single Engine may serve concurrent callers.
type Engine struct {
	version string
}

// New returns an Engine ready for use.
func New() *Engine {
	return &Engine{version: EngineVersion}
}

// Version reports the engine version tag.
func (e *Engine) Version() string {
	return e.version
}

// validateConfig checks the config ranges the wire schema promises.
func validateConfig(cfg AnalysisConfig) error {
	if cfg.Fitting.BackgroundOrder < 0 || cfg.Fitting.BackgroundOrder > 10 {
		return validationErr("background_order", "must be in [0,10], got %d", cfg.Fitting.BackgroundOrder)
	}
	if cfg.Fitting.MaxIterations < 1 || cfg.Fitting.MaxIterations > 10000 {
		return validationErr("max_iterations", "must be in [1,10000], got %d", cfg.Fitting.MaxIterations)
	}
	if cfg.Fitting.Tolerance <= 0 {
		return validationErr("tolerance", "must be positive, got %g", cfg.Fitting.Tolerance)
	}
	if cfg.QualityThreshold < 0 || cfg.QualityThreshold > 1 {
		return validationErr("quality_threshold", "must be in [0,1], got %g", cfg.QualityThreshold)
	}
	return nil
}

// Analyze runs the full pipeline: sort, background subtraction, detection,
// per-peak fitting and aggregation. Only input-shape and config violations
// return an error; every later failure degrades into warnings on the
// result, which always carries processing metadata.
func (e *Engine) Analyze(qValues, intensities []float64, cfg AnalysisConfig) (*Result, error) {
	start := time.Now()

	if err := validateInput(qValues, intensities); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	res := e.analyze(qValues, intensities, cfg, start)
	return res, nil
}

func (e *Engine) analyze(qValues, intensities []float64, cfg AnalysisConfig, start time.Time) (res *Result) {
	var warnings []string

	// Anything unexpected past validation is downgraded to a failed result
	// rather than surfaced; callers always get structured metadata back.
	defer func() {
		if r := recover(); r != nil {
			res = &Result{
				Peaks: []Peak{},
				Metadata: Metadata{
					Warnings: []string{fmt.Sprintf("Analysis failed: %v", r)},
					Success:  false,
					ProcessingMs: float64(time.Since(start)) /
						float64(time.Millisecond),
				},
			}
		}
	}()

	q, intensity := sortPattern(qValues, intensities)

	background, fellBack := fitBackground(q, intensity, cfg.Fitting)
	if fellBack {
		warnings = append(warnings, "Spline background failed, fell back to linear fit")
	}

	subtracted := make([]float64, len(intensity))
	for i, v := range intensity {
		subtracted[i] = v - background.Points[i]
	}

	peakIndices := detectPeaks(q, subtracted, cfg.Detection)
	if len(peakIndices) == 0 {
		warnings = append(warnings, "No peaks detected with current parameters")
	}

	peaks := make([]Peak, 0, len(peakIndices))
	fitted := 0
	for i, idx := range peakIndices {
		peak, err := fitPeak(q, subtracted, idx, cfg.Fitting, i)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to fit peak %d: %v", i+1, err))
			continue
		}
		if peak.RSquared >= cfg.QualityThreshold {
			peaks = append(peaks, peak)
			fitted++
		} else {
			warnings = append(warnings, fmt.Sprintf(
				"Peak %d fit quality below threshold (R^2=%.3f)", i+1, peak.RSquared))
		}
	}

	overall := overallFitQuality(q, subtracted, peaks)

	if warnings == nil {
		warnings = []string{}
	}

	return &Result{
		Peaks:      peaks,
		Background: &background,
		Metadata: Metadata{
			NumPeaksDetected: len(peakIndices),
			NumPeaksFitted:   fitted,
			OverallRSquared:  overall,
			ProcessingMs:     float64(time.Since(start)) / float64(time.Millisecond),
			Warnings:         warnings,
			Success:          true,
		},
		Processed: &Pattern{Q: q, Intensity: subtracted},
	}
}

// overallFitQuality scores the retained peaks against the full
// background-subtracted pattern. The reconstruction synthesises every peak
// as a Gaussian of its reported height and FWHM regardless of the fitted
// profile shape; Lorentzian and Voigt peaks therefore score slightly low.
func overallFitQuality(q, intensity []float64, peaks []Peak) float64 {
	if len(peaks) == 0 {
		return 0
	}

	total := make([]float64, len(intensity))
	for _, p := range peaks {
		sigma := p.Width / fwhmFactor
		if sigma <= 0 || math.IsNaN(sigma) {
			continue
		}
		for i, x := range q {
			total[i] += gaussian(x, p.Position, p.Height, sigma)
		}
	}

	return rSquared(intensity, total)
}
