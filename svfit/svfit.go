// Public domain.

// Package svfit estimates linear trends in binned catalog data.
//
// The estimator is a weighted least-squares line fit with analytic errors
// on the slope and intercept, derived from the weighted design matrix.
// Degenerate input (fewer than two points, or no spread in the predictor)
// is not an error: it yields the documented empty-bin sentinel of NaN
// values with infinite errors, which downstream aggregation excludes from
// pass/fail decisions.
package svfit

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Results holds a weighted linear regression result for one bin.
type Results struct {
	Slope, Intercept       float64
	SlopeErr, InterceptErr float64
	SlopeInterceptCovar    float64
	N                      int // points used in the fit
}

// Degenerate reports whether the result carries the empty/degenerate bin
// sentinel rather than a usable fit.
func (r Results) Degenerate() bool { return math.IsNaN(r.Slope) }

func degenerate(n int) Results {
	return Results{
		Slope:               math.NaN(),
		Intercept:           math.NaN(),
		SlopeErr:            math.Inf(1),
		InterceptErr:        math.Inf(1),
		SlopeInterceptCovar: math.NaN(),
		N:                   n,
	}
}

// LinregressWithErrors fits y = slope*x + intercept, weighting each point
// by the inverse variance of its response.  A nil yErr fits with unit
// weights.  Callers exclude flagged-invalid points before calling; they are
// not given zero weight.
func LinregressWithErrors(x, y, yErr []float64) Results {
	n := len(x)
	if n < 2 {
		return degenerate(n)
	}
	spread := false
	for i := 1; i < n; i++ {
		if x[i] != x[0] {
			spread = true
			break
		}
	}
	if !spread {
		return degenerate(n)
	}

	var w, wx, wy, wxx, wxy float64
	for i := 0; i < n; i++ {
		wi := 1.0
		if yErr != nil {
			wi = 1 / (yErr[i] * yErr[i])
		}
		w += wi
		wx += wi * x[i]
		wy += wi * y[i]
		wxx += wi * x[i] * x[i]
		wxy += wi * x[i] * y[i]
	}
	delta := w*wxx - wx*wx
	if !(delta > 0) {
		return degenerate(n)
	}
	return Results{
		Slope:               (w*wxy - wx*wy) / delta,
		Intercept:           (wxx*wy - wx*wxy) / delta,
		SlopeErr:            math.Sqrt(w / delta),
		InterceptErr:        math.Sqrt(wxx / delta),
		SlopeInterceptCovar: -wx / delta,
		N:                   n,
	}
}

// Rand is the subset of a random number generator used by bootstrap
// resampling.  An interface allows the generator to be swapped for a
// trivially predictable one in tests.
type Rand interface {
	Intn(n int) int
}

// Bootstrap fits the data as LinregressWithErrors does, then replaces the
// analytic slope and intercept errors with bootstrap estimates: the data
// is resampled with replacement nResample times and the standard deviation
// of the refit slopes and intercepts is taken.  Resamples that happen to be
// degenerate (all points identical) are dropped.
//
// The caller seeds rnd; given the same seed, data, and nResample the result
// is reproducible.
func Bootstrap(x, y, yErr []float64, nResample int, rnd Rand) Results {
	r := LinregressWithErrors(x, y, yErr)
	if r.Degenerate() || nResample < 2 {
		return r
	}
	n := len(x)
	xr := make([]float64, n)
	yr := make([]float64, n)
	var er []float64
	if yErr != nil {
		er = make([]float64, n)
	}
	slopes := make([]float64, 0, nResample)
	intercepts := make([]float64, 0, nResample)
	for b := 0; b < nResample; b++ {
		for i := 0; i < n; i++ {
			j := rnd.Intn(n)
			xr[i] = x[j]
			yr[i] = y[j]
			if er != nil {
				er[i] = yErr[j]
			}
		}
		rb := LinregressWithErrors(xr, yr, er)
		if rb.Degenerate() {
			continue
		}
		slopes = append(slopes, rb.Slope)
		intercepts = append(intercepts, rb.Intercept)
	}
	if len(slopes) < 2 {
		return r
	}
	r.SlopeErr = stat.StdDev(slopes, nil)
	r.InterceptErr = stat.StdDev(intercepts, nil)
	return r
}

// Bias holds multiplicative (m) and additive (c) shear bias, derived from a
// regression of measured shear against true input shear: the slope is 1+m
// and the intercept is c.
type Bias struct {
	M, MErr float64
	C, CErr float64
	MCCovar float64
}

// BiasFromFit converts a measured-versus-true shear regression into bias
// terms.
func BiasFromFit(r Results) Bias {
	return Bias{
		M:       r.Slope - 1,
		MErr:    r.SlopeErr,
		C:       r.Intercept,
		CErr:    r.InterceptErr,
		MCCovar: r.SlopeInterceptCovar,
	}
}
