// Public domain.

package svres_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shevalid/svfit"
	"shevalid/svres"
)

func TestCompare(t *testing.T) {
	// 5 standard errors from zero against a 3 sigma threshold.
	c := svres.Compare(0.05, 0, 0.01, 3)
	assert.True(t, c.GoodData)
	assert.InDelta(t, 5, c.Z, 1e-12)
	assert.False(t, c.Pass)

	c = svres.Compare(0.02, 0, 0.01, 3)
	assert.True(t, c.GoodData)
	assert.InDelta(t, 2, c.Z, 1e-12)
	assert.True(t, c.Pass)

	// Exactly on the threshold passes.
	c = svres.Compare(0.03, 0, 0.01, 3)
	assert.True(t, c.Pass)

	// The no-data sentinel is excluded, not failed.
	c = svres.Compare(math.NaN(), 0, math.Inf(1), 3)
	assert.False(t, c.GoodData)

	// A finite value with a zero error cannot be judged.
	c = svres.Compare(0.05, 0, 0, 3)
	assert.False(t, c.GoodData)
}

func TestCompareDiff(t *testing.T) {
	c := svres.CompareDiff(1.0, 0.1, 1.05, 0.1, 3)
	require.True(t, c.GoodData)
	assert.InDelta(t, 0.05/math.Sqrt(0.02), c.Z, 1e-12)
	assert.True(t, c.Pass)

	c = svres.CompareDiff(2.0, 0.1, 1.0, 0.1, 3)
	require.True(t, c.GoodData)
	assert.False(t, c.Pass)

	c = svres.CompareDiff(1.0, 0.1, math.NaN(), math.Inf(1), 3)
	assert.False(t, c.GoodData)
}

func TestCompareKS(t *testing.T) {
	k := svres.CompareKS(0.3, 0.01, 0.05, 50)
	assert.True(t, k.GoodData)
	assert.False(t, k.Pass)

	k = svres.CompareKS(0.05, 0.8, 0.05, 50)
	assert.True(t, k.GoodData)
	assert.True(t, k.Pass)

	// Empty bins are inconclusive, not failures.
	k = svres.CompareKS(math.NaN(), math.NaN(), 0.05, 0)
	assert.False(t, k.GoodData)
	assert.True(t, k.Pass)
}

func TestParseScaling(t *testing.T) {
	for _, s := range []string{"none", "bins", "test_cases", "test_case_bins", " Bins "} {
		_, err := svres.ParseScaling(s)
		assert.NoError(t, err, s)
	}
	_, err := svres.ParseScaling("per-bin")
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	assert.Equal(t, 5.0, svres.ScaleNone.Scale(5, 10, 10, 100))
	assert.Equal(t, 2.0, svres.ScaleBins.Scale(2, 1, 5, 5), "one check needs no correction")

	// More simultaneous checks tighten the threshold monotonically.
	prev := 2.0
	for _, n := range []int{2, 5, 20, 100} {
		s := svres.ScaleTestCaseBins.Scale(2, 1, 1, n)
		assert.Greater(t, s, prev, "n=%d", n)
		prev = s
	}
	// Stays in a sane range.
	assert.Less(t, prev, 5.0)

	// The three count-based policies pick their respective n.
	assert.Equal(t,
		svres.ScaleBins.Scale(3, 7, 1, 1),
		svres.ScaleTestCases.Scale(3, 1, 7, 1))
	assert.Equal(t,
		svres.ScaleBins.Scale(3, 7, 1, 1),
		svres.ScaleTestCaseBins.Scale(3, 1, 1, 7))
}

func regressionBin(i int, lo, hi float64, n int, slope, slopeErr float64) svres.BinResult {
	return svres.BinResult{
		BinIndex: i,
		Limits:   [2]float64{lo, hi},
		N:        n,
		Fit: svfit.Results{
			Slope: slope, SlopeErr: slopeErr,
			Intercept: 0, InterceptErr: 1,
			N: n,
		},
	}
}

func emptyBin(i int, lo, hi float64) svres.BinResult {
	return svres.BinResult{
		BinIndex: i,
		Limits:   [2]float64{lo, hi},
		Fit: svfit.Results{
			Slope: math.NaN(), Intercept: math.NaN(),
			SlopeErr: math.Inf(1), InterceptErr: math.Inf(1),
		},
	}
}

func TestFinalizeRegressionToZero(t *testing.T) {
	tc := &svres.TestCaseResult{
		TestCaseID: "case",
		Bins: []svres.BinResult{
			regressionBin(0, 0, 10, 50, 0.002, 0.001), // z=2, passes
			regressionBin(1, 10, 20, 50, 0.02, 0.001), // z=20, fails
		},
	}
	tc.FinalizeRegression(svres.ToZero, 5, 5)
	assert.Equal(t, svres.ResultFail, tc.Result)
	assert.InDelta(t, 20, tc.MeasuredValue, 1e-9)
	require.Len(t, tc.Supp, 2)
	assert.Contains(t, tc.Supp[0].Message, "Results for bin 0")
	assert.Contains(t, tc.Supp[0].Message, "Results for bin 1")
}

func TestFinalizeRegressionSparseBinExcluded(t *testing.T) {
	// A wildly failing bin with too few points cannot fail the case.
	tc := &svres.TestCaseResult{
		Bins: []svres.BinResult{
			regressionBin(0, 0, 10, 50, 0.002, 0.001),
			regressionBin(1, 10, 20, 2, 1.0, 0.001),
		},
	}
	tc.FinalizeRegression(svres.ToZero, 5, 5)
	assert.Equal(t, svres.ResultPass, tc.Result)
}

func TestFinalizeRegressionNoData(t *testing.T) {
	tc := &svres.TestCaseResult{
		Bins: []svres.BinResult{
			emptyBin(0, 0, 10),
			emptyBin(1, 10, 20),
		},
	}
	tc.FinalizeRegression(svres.ToZero, 5, 5)
	assert.Equal(t, svres.ResultPass, tc.Result)
	assert.Equal(t, svres.WarningTestNotRun, tc.Comment)
	assert.Equal(t, svres.MeasuredValBadData, tc.MeasuredValue)
}

func TestFinalizeRegressionDifference(t *testing.T) {
	// The first bin has no neighbor; only changes between bins can fail.
	tc := &svres.TestCaseResult{
		Bins: []svres.BinResult{
			regressionBin(0, 0, 10, 50, 0.5, 0.001), // huge slope, no neighbor
			regressionBin(1, 10, 20, 50, 0.5001, 0.001),
		},
	}
	tc.FinalizeRegression(svres.Difference, 5, 5)
	assert.Equal(t, svres.ResultPass, tc.Result)

	tc = &svres.TestCaseResult{
		Bins: []svres.BinResult{
			regressionBin(0, 0, 10, 50, 0.5, 0.001),
			regressionBin(1, 10, 20, 50, 0.6, 0.001), // jump of ~70 sigma
		},
	}
	tc.FinalizeRegression(svres.Difference, 5, 5)
	assert.Equal(t, svres.ResultFail, tc.Result)
}

func TestFinalizeRegressionBias(t *testing.T) {
	// Slope 1 means zero multiplicative bias.
	tc := &svres.TestCaseResult{
		Bins: []svres.BinResult{
			regressionBin(0, 0, 10, 50, 1.001, 0.01),
		},
	}
	tc.FinalizeRegression(svres.BiasMode, 5, 5)
	assert.Equal(t, svres.ResultPass, tc.Result)
	assert.Contains(t, tc.Supp[0].Message, "m =")

	tc = &svres.TestCaseResult{
		Bins: []svres.BinResult{
			regressionBin(0, 0, 10, 50, 1.2, 0.01), // m=0.2, z=20
		},
	}
	tc.FinalizeRegression(svres.BiasMode, 5, 5)
	assert.Equal(t, svres.ResultFail, tc.Result)
}

func TestFinalizeKS(t *testing.T) {
	tc := &svres.TestCaseResult{
		Bins: []svres.BinResult{
			{BinIndex: 0, Limits: [2]float64{0, 10}, KS: svres.CompareKS(0.05, 0.9, 0.05, 40)},
			{BinIndex: 1, Limits: [2]float64{10, 20}, KS: svres.CompareKS(math.NaN(), math.NaN(), 0.05, 0)},
		},
	}
	tc.FinalizeKS()
	assert.Equal(t, svres.ResultPass, tc.Result)
	assert.InDelta(t, 0.9, tc.MeasuredValue, 1e-12)

	tc.Bins[0].KS = svres.CompareKS(0.6, 0.001, 0.05, 40)
	tc.FinalizeKS()
	assert.Equal(t, svres.ResultFail, tc.Result)

	// All bins empty: not run, passes by default.
	tc.Bins[0].KS = svres.CompareKS(math.NaN(), math.NaN(), 0.05, 0)
	tc.FinalizeKS()
	assert.Equal(t, svres.ResultPass, tc.Result)
	assert.Equal(t, svres.WarningTestNotRun, tc.Comment)
}

func TestFinalizeFraction(t *testing.T) {
	tc := &svres.TestCaseResult{}
	tc.FinalizeFraction(1.0, 1.0, "")
	assert.Equal(t, svres.ResultPass, tc.Result)

	tc.FinalizeFraction(0.8, 1.0, "")
	assert.Equal(t, svres.ResultFail, tc.Result)
	assert.InDelta(t, 0.8, tc.MeasuredValue, 1e-12)

	tc.FinalizeFraction(math.NaN(), 1.0, "")
	assert.Equal(t, svres.ResultPass, tc.Result)
	assert.True(t, tc.NotRun)
	assert.Equal(t, svres.WarningTestNotRun, tc.Comment)
}
