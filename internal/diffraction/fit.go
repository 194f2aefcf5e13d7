package diffraction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// maxFuncEvals caps the optimizer's function-evaluation budget per peak.
// FittingConfig.MaxIterations is validated at the API boundary; the solve
// budget itself is fixed.
const maxFuncEvals = 1000

// fitOutcome carries the reported parameters of one profile fit, whether
// converged or fallen back to the initial estimates.
type fitOutcome struct {
	position float64
	height   float64
	width    float64 // FWHM
	area     float64
	rSquared float64
}

// fitPeak extracts a local window around the detected sample and fits the
// configured profile by bounded non-linear least squares. A fit that fails
// to converge falls back to the initial estimates with R² = 0; the peak is
// still returned so the quality filter can decide its fate.
func fitPeak(q, intensity []float64, peakIdx int, cfg FittingConfig, id int) (Peak, error) {
	n := len(q)
	if peakIdx < 0 || peakIdx >= n {
		return Peak{}, fmt.Errorf("peak index %d out of range [0,%d)", peakIdx, n)
	}

	// Adaptive half-window keeps fits well-posed on short patterns.
	window := n / 10
	if window > 20 {
		window = 20
	}
	start := peakIdx - window
	if start < 0 {
		start = 0
	}
	end := peakIdx + window + 1
	if end > n {
		end = n
	}

	qw := q[start:end]
	yw := intensity[start:end]
	local := peakIdx - start

	pos := qw[local]
	height := yw[local]

	// FWHM estimate: walk outward from the peak until the signal drops
	// below half the peak height on each side.
	halfMax := height / 2
	left, right := local, local
	for left > 0 && yw[left] > halfMax {
		left--
	}
	for right < len(yw)-1 && yw[right] > halfMax {
		right++
	}
	width := qw[right] - qw[left]
	if width <= 0 {
		width = 0.1
	}

	var out fitOutcome
	switch cfg.ProfileType {
	case ProfileLorentzian:
		out = fitLorentzian(qw, yw, pos, height, width)
	case ProfileVoigt:
		out = fitVoigt(qw, yw, pos, height, width)
	default:
		// Gaussian, and pseudo_voigt which the engine fits as Gaussian.
		out = fitGaussian(qw, yw, pos, height, width)
	}

	dSpacing := 0.0
	if out.position > 0 {
		dSpacing = 2 * math.Pi / out.position
	}

	return Peak{
		ID:          id,
		Position:    out.position,
		Height:      out.height,
		Width:       out.width,
		Area:        out.area,
		DSpacing:    dSpacing,
		ProfileType: cfg.ProfileType,
		RSquared:    out.rSquared,
	}, nil
}

func fitGaussian(qw, yw []float64, pos, height, width float64) fitOutcome {
	sigmaInit := width / fwhmFactor
	init := []float64{pos, height, sigmaInit}
	lo := []float64{qw[0], 0, 0.001}
	hi := []float64{qw[len(qw)-1], math.Inf(1), math.Inf(1)}

	model := func(p []float64, x float64) float64 {
		return gaussian(x, p[0], p[1], p[2])
	}
	p, ok := solveProfile(qw, yw, model, init, lo, hi)
	if !ok {
		return fallbackOutcome(pos, height, width)
	}

	sigma := p[2]
	return fitOutcome{
		position: p[0],
		height:   p[1],
		width:    sigma * fwhmFactor,
		area:     p[1] * sigma * math.Sqrt(2*math.Pi),
		rSquared: windowRSquared(qw, yw, model, p),
	}
}

func fitLorentzian(qw, yw []float64, pos, height, width float64) fitOutcome {
	gammaInit := width / 2 // FWHM = 2γ
	init := []float64{pos, height, gammaInit}
	lo := []float64{qw[0], 0, 0.001}
	hi := []float64{qw[len(qw)-1], math.Inf(1), math.Inf(1)}

	model := func(p []float64, x float64) float64 {
		return lorentzian(x, p[0], p[1], p[2])
	}
	p, ok := solveProfile(qw, yw, model, init, lo, hi)
	if !ok {
		return fallbackOutcome(pos, height, width)
	}

	gamma := p[2]
	return fitOutcome{
		position: p[0],
		height:   p[1],
		width:    2 * gamma,
		area:     p[1] * math.Pi * gamma,
		rSquared: windowRSquared(qw, yw, model, p),
	}
}

func fitVoigt(qw, yw []float64, pos, height, width float64) fitOutcome {
	init := []float64{pos, height, width / 4, width / 4}
	lo := []float64{qw[0], 0, 0.001, 0.001}
	hi := []float64{qw[len(qw)-1], math.Inf(1), math.Inf(1), math.Inf(1)}

	model := func(p []float64, x float64) float64 {
		return voigt(x, p[0], p[1], p[2], p[3])
	}
	p, ok := solveProfile(qw, yw, model, init, lo, hi)
	if !ok {
		return fallbackOutcome(pos, height, width)
	}

	sigma, gamma := p[2], p[3]
	return fitOutcome{
		position: p[0],
		height:   p[1],
		// Approximate Voigt FWHM and area; the exact expressions need the
		// full Faddeeva inversion and gain nothing at this precision.
		width:    2 * math.Sqrt(sigma*sigma+gamma*gamma),
		area:     p[1] * math.Sqrt(math.Pi) * (sigma + gamma),
		rSquared: windowRSquared(qw, yw, model, p),
	}
}

// fallbackOutcome reports the initial estimates when the solve fails; the
// area is a rough triangle approximation and R² is zero so the quality
// filter sees the fit for what it is.
func fallbackOutcome(pos, height, width float64) fitOutcome {
	return fitOutcome{
		position: pos,
		height:   height,
		width:    width,
		area:     height * width * 0.5,
		rSquared: 0,
	}
}

// solveProfile minimises the sum of squared residuals with Nelder-Mead,
// enforcing box bounds by clamping parameters inside the objective. ok is
// false when the method errors, exhausts its evaluation budget or produces
// non-finite parameters; the caller falls back to the initial estimates.
func solveProfile(qw, yw []float64, model func(p []float64, x float64) float64, init, lo, hi []float64) ([]float64, bool) {
	obj := func(p []float64) float64 {
		cp := clampParams(p, lo, hi)
		var sse float64
		for i, x := range qw {
			r := yw[i] - model(cp, x)
			sse += r * r
		}
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.MaxFloat64
		}
		return sse
	}

	problem := optimize.Problem{Func: obj}
	settings := &optimize.Settings{
		FuncEvaluations: maxFuncEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, init, settings, &optimize.NelderMead{})
	if err != nil || res == nil {
		return nil, false
	}
	if res.Status == optimize.FunctionEvaluationLimit {
		return nil, false
	}
	p := clampParams(res.X, lo, hi)
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return p, true
}

func clampParams(p, lo, hi []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		if v < lo[i] {
			v = lo[i]
		}
		if v > hi[i] {
			v = hi[i]
		}
		out[i] = v
	}
	return out
}

// windowRSquared evaluates the fitted model over the window and scores it
// with the same SS_res/SS_tot formula used for backgrounds.
func windowRSquared(qw, yw []float64, model func(p []float64, x float64) float64, p []float64) float64 {
	fitted := make([]float64, len(qw))
	for i, x := range qw {
		fitted[i] = model(p, x)
	}
	return rSquared(yw, fitted)
}
