// Public domain.

// Package svprog wires catalogs, configuration, statistics, and reporting
// into the runnable validation tests.
package svprog

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/soniakeys/exit"
	"go.uber.org/zap"
	xrand "golang.org/x/exp/rand"

	"shevalid/svbin"
	"shevalid/svcat"
	"shevalid/svconf"
	"shevalid/svfit"
	"shevalid/svprod"
	"shevalid/svres"
)

// Version is the software release recorded in product headers.
const Version = "9.1"

// RunEnv carries the options common to every test runner.
type RunEnv struct {
	Workdir    string
	ConfigPath string
	Verbose    bool
	Overrides  *svconf.Overrides
}

// setup builds the logger and loads the configuration file.  Errors here
// terminate the run.
func (env *RunEnv) setup() (*zap.Logger, *svconf.FileConfig) {
	zc := zap.NewProductionConfig()
	if env.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	lg, err := zc.Build()
	if err != nil {
		exit.Log(err)
	}
	fc, err := svconf.Load(env.ConfigPath)
	if err != nil {
		exit.Log(err)
	}
	return lg, fc
}

func (env *RunEnv) path(name string) string {
	return filepath.Join(env.Workdir, name)
}

func sortedKeys(m map[string]string) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// A fitFunc fits one bin's points.  The bin ordinal lets seeded bootstrap
// fits stay independent across bins yet reproducible across runs.
type fitFunc func(x, y, yErr []float64, bin int) svfit.Results

func analyticFit(x, y, yErr []float64, _ int) svfit.Results {
	return svfit.LinregressWithErrors(x, y, yErr)
}

func fitterFor(cfg *svconf.Resolved) fitFunc {
	if !cfg.Bootstrap {
		return analyticFit
	}
	return func(x, y, yErr []float64, bin int) svfit.Results {
		src := &xrand.PCGSource{}
		src.Seed(cfg.BootstrapSeed + uint64(bin))
		return svfit.Bootstrap(x, y, yErr, cfg.NBootstrap, xrand.New(src))
	}
}

// buildRegressionCase bins the objects along p and fits each bin.
// Objects failing Valid or the extra filter are excluded, as are points
// with a non-finite predictor, response, or response error.  A nil yErrOf
// fits unweighted.
func buildRegressionCase(id, method string, p svbin.Parameter, objs []svcat.Object,
	spec svbin.Spec, filter func(*svcat.Object) bool,
	xOf, yOf, yErrOf func(*svcat.Object) float64, fit fitFunc, binBase int) *svres.TestCaseResult {

	kept := make([]*svcat.Object, 0, len(objs))
	covs := make([]float64, 0, len(objs))
	for i := range objs {
		o := &objs[i]
		if !o.Valid() || (filter != nil && !filter(o)) {
			continue
		}
		kept = append(kept, o)
		covs = append(covs, o.Covariate(p))
	}

	edges := spec.Edges(covs)
	n := svbin.NumBins(edges)
	tc := &svres.TestCaseResult{
		TestCaseID: id,
		Method:     method,
		Parameter:  p,
		BinEdges:   edges,
		Bins:       make([]svres.BinResult, n),
	}

	xs := make([][]float64, n)
	ys := make([][]float64, n)
	var es [][]float64
	if yErrOf != nil {
		es = make([][]float64, n)
	}
	for _, o := range kept {
		b, ok := svbin.Index(edges, o.Covariate(p))
		if !ok {
			continue
		}
		x, y := xOf(o), yOf(o)
		if !finite(x) || !finite(y) {
			continue
		}
		var e float64
		if yErrOf != nil {
			e = yErrOf(o)
			if !finite(e) || e <= 0 {
				continue
			}
		}
		xs[b] = append(xs[b], x)
		ys[b] = append(ys[b], y)
		if es != nil {
			es[b] = append(es[b], e)
		}
	}

	for b := 0; b < n; b++ {
		var e []float64
		if es != nil {
			e = es[b]
		}
		tc.Bins[b] = svres.BinResult{
			BinIndex: b,
			Limits:   [2]float64{edges[b], edges[b+1]},
			N:        len(xs[b]),
			Fit:      fit(xs[b], ys[b], e, binBase+b),
		}
	}
	return tc
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finalizeRegressionCases applies fail-sigma scaling across the whole run
// and computes every case's verdict.
func finalizeRegressionCases(cases []*svres.TestCaseResult, mode svres.CompareMode, cfg *svconf.Resolved) {
	tot := 0
	for _, tc := range cases {
		tot += len(tc.Bins)
	}
	for _, tc := range cases {
		s := cfg.FailSigmaScaling.Scale(cfg.SlopeFailSigma, len(tc.Bins), len(cases), tot)
		ic := cfg.FailSigmaScaling.Scale(cfg.InterceptFailSigma, len(tc.Bins), len(cases), tot)
		tc.FinalizeRegression(mode, s, ic)
	}
}

// writeProduct writes the results product and its plain-text directory
// listing.
func writeProduct(env RunEnv, lg *zap.Logger, prod *svprod.Product,
	productName, banner, dirName string, files []string) {

	productPath := env.path(productName)
	if err := prod.Write(productPath); err != nil {
		exit.Log(err)
	}
	files = append(files, productName)
	if err := svprod.WriteDirectory(env.path(dirName), banner, files); err != nil {
		exit.Log(err)
	}
	lg.Info("wrote validation results",
		zap.String("product", productPath),
		zap.Int("tests", prod.Data.NumberOfTests))
}

func caseID(testID, method string, p svbin.Parameter) string {
	return fmt.Sprintf("%s-%s-%s", testID, method, p)
}
