// Public domain.

package svfit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// UniformKS computes the one-sample Kolmogorov-Smirnov statistic of p
// against the uniform distribution on [0,1], and the asymptotic p-value.
// Callers trim invalid values first; an empty input returns NaN for both,
// the no-data sentinel.
func UniformKS(p []float64) (d, pValue float64) {
	n := len(p)
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, p)
	sort.Float64s(sorted)
	for i, v := range sorted {
		// CDF of U(0,1) is the value itself.
		lo := v - float64(i)/float64(n)
		hi := float64(i+1)/float64(n) - v
		if lo > d {
			d = lo
		}
		if hi > d {
			d = hi
		}
	}
	return d, ksPValue(d, float64(n))
}

// TwoSampleKS computes the two-sample Kolmogorov-Smirnov statistic between
// a and b, and the asymptotic p-value.  Either sample empty returns the
// NaN no-data sentinel.
func TwoSampleKS(a, b []float64) (d, pValue float64) {
	if len(a) == 0 || len(b) == 0 {
		return math.NaN(), math.NaN()
	}
	as := make([]float64, len(a))
	copy(as, a)
	sort.Float64s(as)
	bs := make([]float64, len(b))
	copy(bs, b)
	sort.Float64s(bs)
	d = stat.KolmogorovSmirnov(as, nil, bs, nil)
	n1, n2 := float64(len(a)), float64(len(b))
	return d, ksPValue(d, n1*n2/(n1+n2))
}

// ksPValue evaluates the asymptotic Kolmogorov survival function with the
// small-sample effective-n correction.
func ksPValue(d, ne float64) float64 {
	if !(ne > 0) || math.IsNaN(d) {
		return math.NaN()
	}
	sq := math.Sqrt(ne)
	lambda := (sq + 0.12 + 0.11/sq) * d
	if lambda <= 0 {
		return 1
	}
	sum := 0.0
	sign := 1.0
	for j := 1; j <= 100; j++ {
		term := sign * 2 * math.Exp(-2*float64(j)*float64(j)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-10 {
			break
		}
		sign = -sign
	}
	return math.Min(math.Max(sum, 0), 1)
}
