package diffraction

import (
	"math"
	"testing"
)

func TestGaussianShape(t *testing.T) {
	if got := gaussian(5, 5, 100, 0.2); got != 100 {
		t.Errorf("apex = %v, want 100", got)
	}
	// Half maximum at pos ± FWHM/2.
	half := gaussian(5+0.2*fwhmFactor/2, 5, 100, 0.2)
	if math.Abs(half-50) > 1e-9 {
		t.Errorf("value at half-width = %v, want 50", half)
	}
}

func TestLorentzianShape(t *testing.T) {
	if got := lorentzian(3, 3, 80, 0.1); got != 80 {
		t.Errorf("apex = %v, want 80", got)
	}
	// Half maximum at pos ± γ.
	if got := lorentzian(3.1, 3, 80, 0.1); math.Abs(got-40) > 1e-9 {
		t.Errorf("value at γ = %v, want 40", got)
	}
}

func TestFaddeevaKnownValues(t *testing.T) {
	// w(0) = 1.
	if got := faddeeva(0); math.Abs(real(got)-1) > 1e-4 || math.Abs(imag(got)) > 1e-4 {
		t.Errorf("w(0) = %v, want 1", got)
	}
	// On the imaginary axis w(iy) = erfcx(y); w(i) ≈ 0.42758.
	if got := real(faddeeva(complex(0, 1))); math.Abs(got-0.4275836) > 1e-3 {
		t.Errorf("w(i) = %v, want ≈ 0.42758", got)
	}
	// On the real axis Re w(x) = exp(-x²).
	for _, x := range []float64{0.3, 1.0, 2.5} {
		want := math.Exp(-x * x)
		if got := real(faddeeva(complex(x, 0))); math.Abs(got-want) > 1e-3 {
			t.Errorf("Re w(%v) = %v, want %v", x, got, want)
		}
	}
}

func TestVoigtProfileLimits(t *testing.T) {
	// γ → 0: Voigt approaches the Gaussian density.
	sigma := 0.5
	for _, x := range []float64{0, 0.3, 1.0} {
		want := math.Exp(-x*x/(2*sigma*sigma)) / (sigma * math.Sqrt(2*math.Pi))
		got := voigtProfile(x, sigma, 1e-8)
		if math.Abs(got-want) > 1e-3*want+1e-6 {
			t.Errorf("voigtProfile(%v, σ, γ→0) = %v, want gaussian %v", x, got, want)
		}
	}

	// σ = 0: exact Lorentzian density.
	gamma := 0.4
	for _, x := range []float64{0, 0.2, 1.5} {
		want := gamma / (math.Pi * (x*x + gamma*gamma))
		if got := voigtProfile(x, 0, gamma); math.Abs(got-want) > 1e-12 {
			t.Errorf("voigtProfile(%v, 0, γ) = %v, want lorentzian %v", x, got, want)
		}
	}
}

func TestVoigtProfileUnitArea(t *testing.T) {
	// Trapezoid integration over a wide window should come out near 1.
	sigma, gamma := 0.3, 0.2
	n := 20000
	lo, hi := -60.0, 60.0
	h := (hi - lo) / float64(n)
	var area float64
	for i := 0; i <= n; i++ {
		x := lo + float64(i)*h
		w := 1.0
		if i == 0 || i == n {
			w = 0.5
		}
		area += w * voigtProfile(x, sigma, gamma) * h
	}
	if math.Abs(area-1) > 0.01 {
		t.Errorf("integrated area = %v, want ≈ 1", area)
	}
}

func TestVoigtProfileSymmetric(t *testing.T) {
	for _, x := range []float64{0.1, 0.7, 3.0} {
		a := voigtProfile(x, 0.4, 0.3)
		b := voigtProfile(-x, 0.4, 0.3)
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("voigtProfile not symmetric at %v: %v vs %v", x, a, b)
		}
	}
}
