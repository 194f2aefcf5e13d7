// Package diffraction implements peak analysis for 1-D powder-diffraction
// patterns: background estimation, peak detection, non-linear profile
// fitting and quality scoring. The engine is stateless; concurrent callers
// may analyze independent patterns without coordination.
package diffraction

// ProfileType selects the analytic line shape used for peak fitting.
type ProfileType string

const (
	ProfileGaussian    ProfileType = "gaussian"
	ProfileLorentzian  ProfileType = "lorentzian"
	ProfileVoigt       ProfileType = "voigt"
	ProfilePseudoVoigt ProfileType = "pseudo_voigt"
)

// BackgroundType selects the background model subtracted before detection.
type BackgroundType string

const (
	BackgroundNone       BackgroundType = "none"
	BackgroundLinear     BackgroundType = "linear"
	BackgroundPolynomial BackgroundType = "polynomial"
	BackgroundChebyshev  BackgroundType = "chebyshev"
	BackgroundSpline     BackgroundType = "spline"
)

// DetectionConfig holds peak detection thresholds. Height and prominence are
// fractions of the data maximum and data range respectively; distance and the
// width bounds are expressed in Q-space units and converted to sample-index
// units internally using the median Q step. Nil pointer fields leave the
// corresponding criterion unconstrained.
type DetectionConfig struct {
	// MinHeight is the minimum peak height relative to the maximum intensity.
	MinHeight *float64 `json:"min_height,omitempty"`
	// MinProminence is the minimum prominence relative to the intensity range.
	MinProminence *float64 `json:"min_prominence,omitempty"`
	// MinDistance is the minimum separation between peaks in Q-space units.
	MinDistance *float64 `json:"min_distance,omitempty"`
	// MinWidth and MaxWidth bound the peak width in Q-space units.
	MinWidth *float64 `json:"min_width,omitempty"`
	MaxWidth *float64 `json:"max_width,omitempty"`
}

// FittingConfig holds profile and background fitting parameters.
type FittingConfig struct {
	ProfileType     ProfileType    `json:"profile_type"`
	BackgroundType  BackgroundType `json:"background_type"`
	BackgroundOrder int            `json:"background_order"`
	MaxIterations   int            `json:"max_iterations"`
	Tolerance       float64        `json:"tolerance"`
}

// AnalysisConfig is the complete configuration for one analysis call.
type AnalysisConfig struct {
	Detection DetectionConfig `json:"detection"`
	Fitting   FittingConfig   `json:"fitting"`
	// QualityThreshold is the minimum per-peak R² for a fit to be retained.
	QualityThreshold float64 `json:"quality_threshold"`
}

// DefaultConfig returns the configuration used when a caller supplies none:
// gaussian profile on a linear background, prominence 1% of range, 0.1 Å⁻¹
// minimum peak separation, R² threshold 0.95.
func DefaultConfig() AnalysisConfig {
	prominence := 0.01
	distance := 0.1
	return AnalysisConfig{
		Detection: DetectionConfig{
			MinProminence: &prominence,
			MinDistance:   &distance,
		},
		Fitting: FittingConfig{
			ProfileType:     ProfileGaussian,
			BackgroundType:  BackgroundLinear,
			BackgroundOrder: 1,
			MaxIterations:   1000,
			Tolerance:       1e-6,
		},
		QualityThreshold: 0.95,
	}
}

// Peak describes one fitted diffraction peak.
type Peak struct {
	ID       int     `json:"peak_id"`
	Position float64 `json:"position"` // profile centre, Å⁻¹
	Height   float64 `json:"height"`
	Width    float64 `json:"width"` // FWHM, Å⁻¹
	Area     float64 `json:"area"`  // integrated intensity
	// DSpacing is the real-space lattice spacing 2π/Q in Å, 0 when the
	// fitted position is non-positive.
	DSpacing    float64     `json:"d_spacing"`
	ProfileType ProfileType `json:"profile_type"`
	RSquared    float64     `json:"r_squared"`
}

// Background is the fitted background model for one analysis call.
type Background struct {
	Type BackgroundType `json:"background_type"`
	// Parameters are the fitted model coefficients, basis-dependent.
	Parameters []float64 `json:"parameters"`
	RSquared   float64   `json:"r_squared"`
	// Points holds the background value at each Q sample.
	Points []float64 `json:"background_points"`
}

// Pattern is an ordered (Q, intensity) sequence. After normalisation Q is
// non-decreasing and both slices have equal, non-zero length.
type Pattern struct {
	Q          []float64 `json:"q_values"`
	Intensity  []float64 `json:"intensities"`
	Filename   string    `json:"filename,omitempty"`
	SampleName string    `json:"sample_name,omitempty"`
}

// Metadata summarises one analysis call.
type Metadata struct {
	NumPeaksDetected int      `json:"num_peaks_detected"`
	NumPeaksFitted   int      `json:"num_peaks_fitted"`
	OverallRSquared  float64  `json:"overall_r_squared"`
	ProcessingMs     float64  `json:"processing_time_ms"`
	Warnings         []string `json:"warnings"`
	Success          bool     `json:"success"`
}

// Result is the complete outcome of one analysis call. Peaks are ordered by
// detection position along increasing Q.
type Result struct {
	RequestID  string      `json:"request_id,omitempty"`
	Peaks      []Peak      `json:"peaks"`
	Background *Background `json:"background"`
	Metadata   Metadata    `json:"metadata"`
	// Processed carries the sorted, background-subtracted pattern.
	Processed *Pattern `json:"processed_data,omitempty"`
}
