package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TPValue is the two-tailed p-value of a t statistic with df degrees of freedom.
// df may be fractional (Welch).
func TPValue(t, df float64) float64 {
	if df <= 0 || math.IsNaN(t) {
		return 1.0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clampP(2 * (1 - tDist.CDF(math.Abs(t))))
}

// FPValue is the upper-tail p-value of an F statistic
func FPValue(f, df1, df2 float64) float64 {
	if df1 <= 0 || df2 <= 0 || math.IsNaN(f) {
		return 1.0
	}
	fDist := distuv.F{D1: df1, D2: df2}
	return clampP(1 - fDist.CDF(f))
}

// NormalPValue is the two-tailed p-value of a standard normal z score
func NormalPValue(z float64) float64 {
	return clampP(2 * (1 - distuv.UnitNormal.CDF(math.Abs(z))))
}

// KSPValue is the asymptotic p-value of a two-sample Kolmogorov-Smirnov D statistic,
// using the effective sample size correction of Stephens (1970).
func KSPValue(d float64, na, nb int) float64 {
	if na <= 0 || nb <= 0 {
		return 1.0
	}
	en := math.Sqrt(float64(na) * float64(nb) / float64(na+nb))
	lambda := (en + 0.12 + 0.11/en) * d
	return clampP(kolmogorovQ(lambda))
}

// kolmogorovQ evaluates Q(λ) = 2 Σ (-1)^(j-1) exp(-2 j² λ²)
func kolmogorovQ(lambda float64) float64 {
	if lambda < 1e-3 {
		return 1.0
	}
	const eps1, eps2 = 1e-6, 1e-16

	a2 := -2 * lambda * lambda
	sign := 2.0
	sum, prev := 0.0, 0.0
	for j := 1; j <= 100; j++ {
		term := sign * math.Exp(a2*float64(j*j))
		sum += term
		if math.Abs(term) <= eps1*prev || math.Abs(term) <= eps2*sum {
			return sum
		}
		sign = -sign
		prev = math.Abs(term)
	}
	// no convergence, only happens for tiny lambda
	return 1.0
}

func clampP(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1.0
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
