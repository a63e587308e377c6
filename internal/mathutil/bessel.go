// Package mathutil holds the special functions and Kaiser design formulas
// used to build and audit the decimation filters.
package mathutil

import (
	"math"
)

// BesselI0 computes the modified Bessel function of the first kind, order
// zero, using the Abramowitz & Stegun polynomial approximations. Relative
// error is below 2e-7, well inside what window design needs.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		t := x / besselSmallArgThreshold
		t *= t
		return 1.0 + t*(besselI0Coeff1+t*(besselI0Coeff2+t*(besselI0Coeff3+
			t*(besselI0Coeff4+t*(besselI0Coeff5+t*besselI0Coeff6)))))
	}

	// I₀(x) ≈ eˣ/√x · P(3.75/x)
	t := besselSmallArgThreshold / ax
	result := besselI0AsympCoeff0 + t*(besselI0AsympCoeff1+t*(besselI0AsympCoeff2+
		t*(besselI0AsympCoeff3+t*(besselI0AsympCoeff4+t*(besselI0AsympCoeff5+
			t*(besselI0AsympCoeff6+t*(besselI0AsympCoeff7+t*besselI0AsympCoeff8)))))))

	return math.Exp(ax) * result / math.Sqrt(ax)
}

// KaiserBeta computes the Kaiser window β for a stopband attenuation in dB:
//
//	att > 50:       β = 0.1102·(att - 8.7)
//	21 ≤ att ≤ 50:  β = 0.5842·(att - 21)^0.4 + 0.07886·(att - 21)
//	att < 21:       β = 0
func KaiserBeta(attenuation float64) float64 {
	if attenuation > kaiserAttHigh {
		return kaiserBetaHighCoeff1 * (attenuation - kaiserBetaHighOffset)
	} else if attenuation >= kaiserAttMedium {
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	}
	return 0.0
}

// EstimateFilterLength returns the odd tap count Kaiser's formula asks for,
//
//	N ≈ (att - 8) / (2.285 · 2π · Δf)
//
// with Δf the transition width normalized to the sample rate. The result is
// clamped to [3, 8191].
func EstimateFilterLength(attenuation, transitionBW float64) int {
	if transitionBW <= 0 {
		transitionBW = defaultTransitionBW
	}

	numTaps := (attenuation - kaiserFilterLengthOffset) /
		(kaiserFilterLengthMultiplier * kaiserFilterLengthPiFactor * math.Pi * transitionBW)

	taps := int(math.Ceil(numTaps))
	if taps%2 == 0 {
		taps++
	}

	return min(max(taps, minFilterLength), maxFilterLength)
}

// EstimateTransitionBW inverts EstimateFilterLength: the normalized transition
// width a numTaps filter can reach at the given attenuation. Short filters in
// a decimation cascade get wide transitions; this is how wide.
func EstimateTransitionBW(attenuation float64, numTaps int) float64 {
	if numTaps < minFilterLength || attenuation <= kaiserFilterLengthOffset {
		return 0
	}
	return (attenuation - kaiserFilterLengthOffset) /
		(kaiserFilterLengthMultiplier * kaiserFilterLengthPiFactor * math.Pi * float64(numTaps))
}
