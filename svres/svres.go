// Public domain.

// Package svres turns per-bin statistics into pass/fail verdicts.
//
// A comparison standardizes a measured value against its expected value in
// units of its standard error and flags failure past a configured number of
// standard deviations.  Bins whose statistics carry the degenerate sentinel
// (NaN value or non-finite/zero error), or which hold too few usable
// points, are reported but excluded from the verdict.  A test case fails
// if any sufficiently populated bin fails; it passes otherwise, including
// the case of no usable data anywhere, which an empty bin cannot
// meaningfully fail.
package svres

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"shevalid/svbin"
	"shevalid/svfit"
)

// Verdict strings recorded in the validation product.
const (
	ResultPass = "PASSED"
	ResultFail = "FAILED"
)

// Comment levels and stock messages.
const (
	CommentLevelInfo    = "INFO"
	CommentLevelWarning = "WARNING"

	CommentMultiple   = "Multiple notes; see SupplementaryInformation."
	WarningMultiple   = CommentLevelWarning + ": " + CommentMultiple
	WarningTestNotRun = "WARNING: Test not run."
	WarningBadData    = "Bad data; see SupplementaryInformation"

	MsgNoData       = "No data is available for this test."
	MsgNaNSlope     = "Regression results for slope are NaN."
	MsgZeroSlopeErr = "Slope error is zero or non-finite."
)

// MinBinPoints is the minimum number of usable points for a bin to take
// part in a regression verdict.  Smaller bins are still reported.
const MinBinPoints = 3

// MeasuredValBadData is reported as the measured value when no bin yields
// a finite deviation.
const MeasuredValBadData = -99.0

// A Comparison is one standardized threshold check.
type Comparison struct {
	Value     float64
	Err       float64
	Z         float64 // |Value - expected| / Err
	FailSigma float64
	Pass      bool
	GoodData  bool // false excludes the bin from the verdict
}

// Compare standardizes value against expected and flags failure when the
// deviation exceeds failSigma standard errors.  A NaN value or error marks
// the no-data sentinel; a zero or infinite error with a finite value is
// indeterminate: present but unable to fail.
func Compare(value, expected, err, failSigma float64) Comparison {
	c := Comparison{Value: value, Err: err, Z: math.NaN(), FailSigma: failSigma, Pass: true}
	if math.IsNaN(value) || math.IsNaN(err) {
		c.Pass = false
		return c
	}
	if err == 0 || math.IsInf(err, 0) {
		c.Pass = false
		return c
	}
	c.Z = math.Abs(value-expected) / err
	c.Pass = !(c.Z > failSigma)
	c.GoodData = true
	return c
}

// CompareDiff standardizes the difference between a bin's value and the
// previous bin's, assuming uncorrelated errors.
func CompareDiff(cur, curErr, prev, prevErr, failSigma float64) Comparison {
	c := Comparison{Value: cur - prev, Z: math.NaN(), FailSigma: failSigma}
	if anyNaNOrInf(cur, curErr, prev, prevErr) {
		return c
	}
	if curErr == 0 || prevErr == 0 {
		return c
	}
	c.Err = math.Sqrt(curErr*curErr + prevErr*prevErr)
	c.Z = math.Abs(cur-prev) / c.Err
	c.Pass = !(c.Z > failSigma)
	c.GoodData = true
	return c
}

func anyNaNOrInf(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// A KSComparison is one probability-threshold check for the
// distribution-comparison style tests.
type KSComparison struct {
	D, P     float64
	PFail    float64
	N        int // points entering the test
	Pass     bool
	GoodData bool
}

// CompareKS flags failure when the KS p-value falls below pFail.  An empty
// bin (n == 0 or NaN p) is inconclusive and passes by default.
func CompareKS(d, p, pFail float64, n int) KSComparison {
	k := KSComparison{D: d, P: p, PFail: pFail, N: n, Pass: true}
	if n == 0 || math.IsNaN(p) {
		return k
	}
	k.GoodData = true
	k.Pass = p >= pFail
	return k
}

// Scaling names a policy for tightening the failure threshold when many
// statistically independent checks share it.
type Scaling string

const (
	ScaleNone         Scaling = "none"
	ScaleBins         Scaling = "bins"
	ScaleTestCases    Scaling = "test_cases"
	ScaleTestCaseBins Scaling = "test_case_bins"
)

// ParseScaling parses a (case-insensitive) scaling name.
func ParseScaling(s string) (Scaling, error) {
	switch Scaling(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleNone:
		return ScaleNone, nil
	case ScaleBins:
		return ScaleBins, nil
	case ScaleTestCases:
		return ScaleTestCases, nil
	case ScaleTestCaseBins:
		return ScaleTestCaseBins, nil
	}
	return "", fmt.Errorf("unrecognized fail sigma scaling %q", s)
}

// Scale adjusts a base fail-sigma so that the chance of any of the n
// relevant checks spuriously exceeding it matches the chance of a single
// check exceeding the base value.
func (s Scaling) Scale(sigma float64, nBins, nTestCases, totBins int) float64 {
	var n int
	switch s {
	case ScaleBins:
		n = nBins
	case ScaleTestCases:
		n = nTestCases
	case ScaleTestCaseBins:
		n = totBins
	default:
		return sigma
	}
	return scaledSigma(sigma, n)
}

func scaledSigma(sigma float64, n int) float64 {
	if n <= 1 {
		return sigma
	}
	norm := distuv.UnitNormal
	pGood := 1 - 2*norm.Survival(sigma)
	return norm.Quantile(1 - (1-math.Pow(pGood, 1/float64(n)))/2)
}

// A BinResult holds everything measured for one bin of one test case.
type BinResult struct {
	BinIndex  int
	Limits    [2]float64
	N         int // usable points in the bin
	Fit       svfit.Results
	Slope     Comparison
	Intercept Comparison
	KS        KSComparison
}

// SupplementaryInfo is one key/description/message triple attached to a
// requirement in the validation product.
type SupplementaryInfo struct {
	Key         string
	Description string
	Message     string
}

// A TestCaseResult is the verdict for one (test x method x bin-parameter)
// combination, with every individual bin's numbers retained for
// traceability regardless of the rollup.
type TestCaseResult struct {
	TestCaseID string
	Method     string
	Parameter  svbin.Parameter
	BinEdges   []float64
	Bins       []BinResult

	SlopeResult     string
	InterceptResult string
	Result          string
	MeasuredValue   float64
	Comment         string
	Supp            []SupplementaryInfo
	Figures         []string

	NotRun bool
}

// CompareMode selects how a regression case's slope is judged.
type CompareMode int

const (
	// ToZero compares each bin's slope and intercept against zero.
	ToZero CompareMode = iota
	// Difference compares each bin against the previous bin.
	Difference
	// BiasMode compares the multiplicative bias (slope-1) and additive
	// bias (intercept) against zero.
	BiasMode
)

// FinalizeRegression computes per-bin comparisons and the case verdict
// from the stored fits.  Bins below MinBinPoints are reported but marked
// not good, as are degenerate fits.
func (tc *TestCaseResult) FinalizeRegression(mode CompareMode, slopeSigma, interceptSigma float64) {
	for i := range tc.Bins {
		b := &tc.Bins[i]
		slope := b.Fit.Slope
		if mode == BiasMode {
			slope = b.Fit.Slope - 1
		}
		switch mode {
		case Difference:
			if i == 0 {
				// Nothing to difference against.
				b.Slope = Comparison{Value: math.NaN(), Err: math.NaN(), Z: math.NaN(), FailSigma: slopeSigma}
				b.Intercept = Comparison{Value: math.NaN(), Err: math.NaN(), Z: math.NaN(), FailSigma: interceptSigma}
				continue
			}
			prev := tc.Bins[i-1].Fit
			b.Slope = CompareDiff(b.Fit.Slope, b.Fit.SlopeErr, prev.Slope, prev.SlopeErr, slopeSigma)
			b.Intercept = CompareDiff(b.Fit.Intercept, b.Fit.InterceptErr, prev.Intercept, prev.InterceptErr, interceptSigma)
			if tc.Bins[i-1].N < MinBinPoints {
				b.Slope.GoodData = false
				b.Intercept.GoodData = false
			}
		default:
			b.Slope = Compare(slope, 0, b.Fit.SlopeErr, slopeSigma)
			b.Intercept = Compare(b.Fit.Intercept, 0, b.Fit.InterceptErr, interceptSigma)
		}
		if b.N < MinBinPoints {
			b.Slope.GoodData = false
			b.Intercept.GoodData = false
		}
	}

	var slopeGood bool
	tc.SlopeResult, slopeGood = aggregate(tc.Bins, func(b *BinResult) Comparison { return b.Slope })
	tc.InterceptResult, _ = aggregate(tc.Bins, func(b *BinResult) Comparison { return b.Intercept })

	// The slope verdict decides the requirement; a failing intercept under
	// a passing slope is only a warning.
	tc.Result = tc.SlopeResult
	tc.MeasuredValue = maxFiniteZ(tc.Bins)

	switch {
	case !slopeGood:
		tc.Comment = WarningTestNotRun
	case tc.SlopeResult == ResultPass && tc.InterceptResult == ResultFail:
		tc.Comment = WarningMultiple
	default:
		tc.Comment = CommentLevelInfo + ": " + CommentMultiple
	}

	prop := "slope"
	if mode == BiasMode {
		prop = "m"
	}
	iprop := "intercept"
	if mode == BiasMode {
		iprop = "c"
	}
	tc.Supp = []SupplementaryInfo{
		tc.regressionInfo(prop, "Information about the test on "+prop+".",
			func(b *BinResult) (float64, float64, Comparison) {
				v := b.Fit.Slope
				if mode == BiasMode {
					v = b.Fit.Slope - 1
				}
				return v, b.Fit.SlopeErr, b.Slope
			}),
		tc.regressionInfo(iprop, "Information about the test on "+iprop+".",
			func(b *BinResult) (float64, float64, Comparison) {
				return b.Fit.Intercept, b.Fit.InterceptErr, b.Intercept
			}),
	}
}

func aggregate(bins []BinResult, pick func(*BinResult) Comparison) (string, bool) {
	anyGood, anyFail := false, false
	for i := range bins {
		c := pick(&bins[i])
		if !c.GoodData {
			continue
		}
		anyGood = true
		if !c.Pass {
			anyFail = true
		}
	}
	if anyFail {
		return ResultFail, anyGood
	}
	return ResultPass, anyGood
}

func maxFiniteZ(bins []BinResult) float64 {
	v := math.Inf(-1)
	for i := range bins {
		z := bins[i].Slope.Z
		if !math.IsNaN(z) && !math.IsInf(z, 0) && z > v {
			v = z
		}
	}
	if math.IsInf(v, -1) {
		return MeasuredValBadData
	}
	return v
}

func (tc *TestCaseResult) regressionInfo(prop, desc string,
	pick func(*BinResult) (float64, float64, Comparison)) SupplementaryInfo {

	var sb strings.Builder
	for i := range tc.Bins {
		b := &tc.Bins[i]
		fmt.Fprintf(&sb, "Results for bin %d, for values from %g to %g (%d points):\n",
			b.BinIndex, b.Limits[0], b.Limits[1], b.N)
		v, e, c := pick(b)
		fmt.Fprintf(&sb, "%s = %g\n", prop, v)
		fmt.Fprintf(&sb, "%s_err = %g\n", prop, e)
		fmt.Fprintf(&sb, "%s_z = %g\n", prop, c.Z)
		fmt.Fprintf(&sb, "Maximum allowed %s_z = %.2f\n", prop, c.FailSigma)
		fmt.Fprintf(&sb, "Result: %s\n\n", passString(c))
	}
	return SupplementaryInfo{
		Key:         strings.ToUpper(prop) + "_INFO",
		Description: desc,
		Message:     sb.String(),
	}
}

func passString(c Comparison) string {
	if !c.GoodData {
		return "N/A (insufficient data)"
	}
	if c.Pass {
		return ResultPass
	}
	return ResultFail
}

// FinalizeKS computes the case verdict for a distribution-comparison test.
// Empty bins are inconclusive and cannot fail.
func (tc *TestCaseResult) FinalizeKS() {
	anyGood, anyFail := false, false
	best := math.NaN()
	var sb strings.Builder
	for i := range tc.Bins {
		b := &tc.Bins[i]
		fmt.Fprintf(&sb, "Results for bin %d, for values from %g to %g (%d points):\n",
			b.BinIndex, b.Limits[0], b.Limits[1], b.KS.N)
		if !b.KS.GoodData {
			sb.WriteString(MsgNoData + "\n\n")
			continue
		}
		anyGood = true
		if !b.KS.Pass {
			anyFail = true
		}
		if math.IsNaN(best) || b.KS.P < best {
			best = b.KS.P
		}
		res := ResultFail
		if b.KS.Pass {
			res = ResultPass
		}
		fmt.Fprintf(&sb, "D = %g\np = %g\nMinimum allowed p = %g\nResult: %s\n\n",
			b.KS.D, b.KS.P, b.KS.PFail, res)
	}
	if anyFail {
		tc.Result = ResultFail
	} else {
		tc.Result = ResultPass
	}
	if anyGood {
		tc.MeasuredValue = best
		tc.Comment = CommentLevelInfo + ": " + CommentMultiple
	} else {
		tc.MeasuredValue = MeasuredValBadData
		tc.Comment = WarningTestNotRun
	}
	tc.Supp = []SupplementaryInfo{{
		Key:         "P_INFO",
		Description: "KS test p-value per bin.",
		Message:     sb.String(),
	}}
}

// FinalizeFraction sets the verdict for a completeness-style test from a
// measured fraction and a minimum.  A NaN fraction marks the test not run.
func (tc *TestCaseResult) FinalizeFraction(fraction, minFraction float64, detail string) {
	tc.MeasuredValue = fraction
	switch {
	case math.IsNaN(fraction):
		tc.Result = ResultPass
		tc.MeasuredValue = MeasuredValBadData
		tc.Comment = WarningTestNotRun
		tc.NotRun = true
	case fraction >= minFraction:
		tc.Result = ResultPass
		tc.Comment = CommentLevelInfo + ": " + CommentMultiple
	default:
		tc.Result = ResultFail
		tc.Comment = CommentLevelInfo + ": " + CommentMultiple
	}
	tc.Supp = []SupplementaryInfo{{
		Key:         "FRACTION_INFO",
		Description: "Measured fraction versus the configured minimum.",
		Message:     fmt.Sprintf("fraction = %g\nminimum allowed = %g\n%s", fraction, minFraction, detail),
	}}
}
