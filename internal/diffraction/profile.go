package diffraction

import (
	"math"
	"math/cmplx"
)

// fwhmToSigma converts a Gaussian FWHM to its standard deviation.
const fwhmFactor = 2.3548200450309493 // 2*sqrt(2*ln 2)

// gaussian evaluates height*exp(-((x-pos)/sigma)²/2).
func gaussian(x, pos, height, sigma float64) float64 {
	d := (x - pos) / sigma
	return height * math.Exp(-0.5*d*d)
}

// lorentzian evaluates height*γ²/((x-pos)²+γ²).
func lorentzian(x, pos, height, gamma float64) float64 {
	d := x - pos
	return height * gamma * gamma / (d*d + gamma*gamma)
}

// voigt evaluates the scaled Voigt profile height*V(x-pos; σ, γ), where V is
// the true Gaussian-Lorentzian convolution with unit area. Note the height
// parameter is a scale factor on the unit-area profile, not the apex value.
func voigt(x, pos, height, sigma, gamma float64) float64 {
	return height * voigtProfile(x-pos, sigma, gamma)
}

// voigtProfile computes the unit-area Voigt function
// V(x; σ, γ) = Re[w((x+iγ)/(σ√2))] / (σ√(2π)).
func voigtProfile(x, sigma, gamma float64) float64 {
	if sigma <= 0 {
		// Pure Lorentzian limit.
		return gamma / (math.Pi * (x*x + gamma*gamma))
	}
	z := complex(x, gamma) / complex(sigma*math.Sqrt2, 0)
	return real(faddeeva(z)) / (sigma * math.Sqrt(2*math.Pi))
}

// faddeeva computes the scaled complex complementary error function
// w(z) = exp(-z²)·erfc(-iz) for Im(z) ≥ 0, using Humlíček's four-region
// rational approximation (JQSRT 27, 437 (1982)). Relative accuracy is
// better than 1e-4 across the plane, ample for profile fitting.
func faddeeva(z complex128) complex128 {
	x := real(z)
	y := imag(z)
	t := complex(y, -x)
	s := math.Abs(x) + y

	switch {
	case s >= 15:
		// Region I: single-pole approximation.
		return t * 0.5641896 / (0.5 + t*t)
	case s >= 5.5:
		// Region II.
		u := t * t
		return t * (1.410474 + u*0.5641896) / (0.75 + u*(3.0+u))
	case y >= 0.195*math.Abs(x)-0.176:
		// Region III.
		num := 16.4955 + t*(20.20933+t*(11.96482+t*(3.778987+t*0.5642236)))
		den := 16.4955 + t*(38.82363+t*(39.27121+t*(21.69274+t*(6.699398+t))))
		return num / den
	default:
		// Region IV, near the real axis.
		u := t * t
		num := t * (36183.31 - u*(3321.9905-u*(1540.787-u*(219.0313-u*(35.76683-u*(1.320522-u*0.56419))))))
		den := 32066.6 - u*(24322.84-u*(9022.228-u*(2186.181-u*(364.2191-u*(61.57037-u*(1.841439-u))))))
		return cmplx.Exp(u) - num/den
	}
}
