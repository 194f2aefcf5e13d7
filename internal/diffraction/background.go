package diffraction

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// fitBackground fits the configured background model over the full pattern.
// The returned bool reports whether a spline fit failed and the estimator
// fell back to the linear model; the caller turns that into a warning.
func fitBackground(q, intensity []float64, cfg FittingConfig) (Background, bool) {
	n := len(q)

	if cfg.BackgroundType == BackgroundNone {
		return Background{
			Type:       BackgroundNone,
			Parameters: []float64{},
			RSquared:   1.0,
			Points:     make([]float64, n),
		}, false
	}

	var (
		params   []float64
		points   []float64
		ok       bool
		fellBack bool
	)

	switch cfg.BackgroundType {
	case BackgroundLinear:
		params, points, ok = polyFit(q, intensity, 1)
	case BackgroundPolynomial:
		params, points, ok = polyFit(q, intensity, clampOrder(cfg.BackgroundOrder, n))
	case BackgroundChebyshev:
		params, points, ok = chebFit(q, intensity, clampOrder(cfg.BackgroundOrder, n))
	case BackgroundSpline:
		params, points, ok = splineFit(q, intensity, cfg.BackgroundOrder)
		if !ok {
			fellBack = true
		}
	default:
		params, points, ok = polyFit(q, intensity, 1)
	}

	if !ok {
		// Linear fit of a non-degenerate pattern cannot fail; a degenerate
		// one degrades to the intensity mean as a constant background.
		params, points, ok = polyFit(q, intensity, 1)
		if !ok {
			m := stat.Mean(intensity, nil)
			params = []float64{m}
			points = make([]float64, n)
			for i := range points {
				points[i] = m
			}
		}
	}

	return Background{
		Type:       cfg.BackgroundType,
		Parameters: params,
		RSquared:   rSquared(intensity, points),
		Points:     points,
	}, fellBack
}

// clampOrder keeps a polynomial degree low enough for a determined fit.
func clampOrder(order, n int) int {
	if order > n-1 {
		order = n - 1
	}
	if order < 0 {
		order = 0
	}
	return order
}

// rSquared computes the coefficient of determination 1 - SS_res/SS_tot,
// clamped to [0, 1]. A constant observation (SS_tot == 0) yields 0.
func rSquared(observed, model []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssRes, ssTot float64
	for i, y := range observed {
		r := y - model[i]
		ssRes += r * r
		d := y - mean
		ssTot += d * d
	}
	if ssTot <= 0 {
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	if r2 > 1 {
		return 1
	}
	return r2
}

// lstsq solves the overdetermined system design*beta ≈ y by QR and returns
// the coefficients plus fitted values. ok is false when the system is
// singular or the solve fails.
func lstsq(design *mat.Dense, y []float64) (beta []float64, fitted []float64, ok bool) {
	rows, cols := design.Dims()
	if rows < cols {
		return nil, nil, false
	}
	b := mat.NewVecDense(len(y), y)
	var x mat.VecDense
	if err := x.SolveVec(design, b); err != nil {
		return nil, nil, false
	}
	beta = make([]float64, cols)
	for j := 0; j < cols; j++ {
		beta[j] = x.AtVec(j)
	}
	var f mat.VecDense
	f.MulVec(design, &x)
	fitted = make([]float64, rows)
	for i := 0; i < rows; i++ {
		fitted[i] = f.AtVec(i)
	}
	return beta, fitted, true
}

// polyFit performs a degree-`order` least squares fit in the power basis.
// Coefficients are returned highest degree first.
func polyFit(q, y []float64, order int) ([]float64, []float64, bool) {
	n := len(q)
	cols := order + 1
	design := mat.NewDense(n, cols, nil)
	for i, x := range q {
		p := 1.0
		// Columns hold x^order .. x^0 so Parameters match the usual
		// highest-first coefficient convention.
		for j := cols - 1; j >= 0; j-- {
			design.Set(i, j, p)
			p *= x
		}
	}
	return lstsq(design, y)
}

// chebFit performs a least squares fit in the Chebyshev basis with Q mapped
// onto [-1, 1]. The mapped basis is well-conditioned at high orders where
// the raw power basis is not; the fitted background values are the same
// polynomial either way. Coefficients are returned lowest degree first.
func chebFit(q, y []float64, order int) ([]float64, []float64, bool) {
	n := len(q)
	qMin, qMax := q[0], q[n-1]
	span := qMax - qMin
	cols := order + 1
	design := mat.NewDense(n, cols, nil)
	for i, x := range q {
		t := 0.0
		if span > 0 {
			t = 2*(x-qMin)/span - 1
		}
		tPrev, tCur := 1.0, t
		for j := 0; j < cols; j++ {
			switch j {
			case 0:
				design.Set(i, j, 1)
			case 1:
				design.Set(i, j, t)
			default:
				tPrev, tCur = tCur, 2*t*tCur-tPrev
				design.Set(i, j, tCur)
			}
		}
	}
	return lstsq(design, y)
}

// splineFit fits a smoothing cubic B-spline with evenly spaced interior
// knots. The knot count follows the pattern length: min(order+3, n/4)
// knot sites between the endpoints, of which the interior ones (all but
// the two ends) become spline knots. ok is false when the pattern is too
// short for the knot vector or the least squares system is singular; the
// caller falls back to the linear model.
func splineFit(q, y []float64, order int) ([]float64, []float64, bool) {
	const degree = 3
	n := len(q)

	numSites := order + 3
	if m := n / 4; m < numSites {
		numSites = m
	}
	interior := numSites - 2
	if interior < 0 {
		interior = 0
	}

	nbasis := interior + degree + 1
	if n < nbasis || n < degree+1 {
		return nil, nil, false
	}

	qMin, qMax := q[0], q[n-1]
	if qMax <= qMin {
		return nil, nil, false
	}

	// Clamped knot vector: endpoint multiplicity degree+1 plus evenly
	// spaced interior knots.
	knots := make([]float64, 0, nbasis+degree+1)
	for i := 0; i <= degree; i++ {
		knots = append(knots, qMin)
	}
	step := (qMax - qMin) / float64(interior+1)
	for i := 1; i <= interior; i++ {
		knots = append(knots, qMin+float64(i)*step)
	}
	for i := 0; i <= degree; i++ {
		knots = append(knots, qMax)
	}

	design := mat.NewDense(n, nbasis, nil)
	vals := make([]float64, degree+1)
	for i, x := range q {
		span := findSpan(knots, degree, nbasis, x)
		basisFuncs(knots, degree, span, x, vals)
		for j := 0; j <= degree; j++ {
			design.Set(i, span-degree+j, vals[j])
		}
	}
	return lstsq(design, y)
}

// findSpan locates the knot span index containing x (NURBS-book style),
// treating the right endpoint as part of the last span.
func findSpan(knots []float64, degree, nbasis int, x float64) int {
	if x >= knots[nbasis] {
		return nbasis - 1
	}
	lo, hi := degree, nbasis
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if x < knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// basisFuncs evaluates the degree+1 non-zero B-spline basis functions at x
// for the given span using the Cox-de Boor recursion.
func basisFuncs(knots []float64, degree, span int, x float64, out []float64) {
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)
	out[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = x - knots[span+1-j]
		right[j] = knots[span+j] - x
		saved := 0.0
		for r := 0; r < j; r++ {
			denom := right[r+1] + left[j-r]
			var temp float64
			if denom != 0 {
				temp = out[r] / denom
			}
			out[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		out[j] = saved
	}
}
