// Public domain.

package svprog

import (
	"math"

	"github.com/soniakeys/exit"
	"go.uber.org/zap"

	"shevalid/svbin"
	"shevalid/svcat"
	"shevalid/svfit"
	"shevalid/svplot"
	"shevalid/svprod"
	"shevalid/svres"
)

const (
	psfResTestID      = "T-SHE-000006-psf-res-star-pos"
	psfResRequirement = "R-SHE-PRD-F-100"
	psfResDescription = "Distribution of PSF model fit p-values at star positions, per bin."
	psfResBanner      = "OU-SHE PSF Residual Analysis Results File Directory"
	psfResProductName = "she_validation_test_results_psf_res.xml"
	psfResDirName     = "ShePsfResResultsDirectory.txt"
)

// RunPsfRes validates the PSF model at star positions.  If the model is
// correct, the fit p-values are uniform on [0,1]; each bin's p-values are
// KS-tested against that, or against a reference star catalog's p-values
// in the same bin when refCat is given.
func RunPsfRes(env RunEnv, starCat, refCat string) {
	defer exit.Handler()
	lg, fc := env.setup()
	defer lg.Sync()

	cfg, err := fc.Resolve("psf_res", env.Overrides)
	if err != nil {
		exit.Log(err)
	}

	stars, err := svcat.ReadStarCatalog(starCat)
	if err != nil {
		exit.Log(err)
	}
	lg.Debug("read star catalog", zap.Int("stars", len(stars)))

	var ref []svcat.Object
	if refCat != "" {
		ref, err = svcat.ReadStarCatalog(refCat)
		if err != nil {
			exit.Log(err)
		}
		lg.Debug("read reference star catalog", zap.Int("stars", len(ref)))
	}

	params := []svbin.Parameter{svbin.Tot, svbin.SNR}
	var cases []*svres.TestCaseResult
	var files []string
	for _, p := range params {
		covs := starCovariates(stars, p)
		edges := cfg.BinLimits[p].Edges(covs)
		n := svbin.NumBins(edges)
		tc := &svres.TestCaseResult{
			TestCaseID: caseID(psfResTestID, "PSF", p),
			Method:     "PSF",
			Parameter:  p,
			BinEdges:   edges,
			Bins:       make([]svres.BinResult, n),
		}

		pvals := binPValues(stars, p, edges, n)
		var refVals [][]float64
		if ref != nil {
			refVals = binPValues(ref, p, edges, n)
		}
		for b := 0; b < n; b++ {
			var d, pv float64
			if refVals != nil {
				d, pv = svfit.TwoSampleKS(pvals[b], refVals[b])
			} else {
				d, pv = svfit.UniformKS(pvals[b])
			}
			tc.Bins[b] = svres.BinResult{
				BinIndex: b,
				Limits:   [2]float64{edges[b], edges[b+1]},
				N:        len(pvals[b]),
				KS:       svres.CompareKS(d, pv, cfg.PFail, len(pvals[b])),
			}
		}
		tc.FinalizeKS()
		cases = append(cases, tc)

		if p == svbin.Tot {
			var all []float64
			for _, bv := range pvals {
				all = append(all, bv...)
			}
			const name = "psf_res_p_values.png"
			err := svplot.Histogram(env.path(name), "PSF fit p-values", "p", all, 20)
			if err != nil {
				lg.Warn("figure render failed", zap.Error(err))
			} else {
				tc.Figures = append(tc.Figures, name)
				files = append(files, name)
			}
		}
	}

	prod := svprod.New(Version)
	for _, tc := range cases {
		prod.AddTestCase(tc, psfResDescription, psfResRequirement, "Min KS p-value among bins")
	}
	writeProduct(env, lg, prod, psfResProductName, psfResBanner, psfResDirName, files)
}

func starCovariates(stars []svcat.Object, p svbin.Parameter) []float64 {
	covs := make([]float64, 0, len(stars))
	for i := range stars {
		if stars[i].Flag == 0 && !math.IsNaN(stars[i].PValue) {
			covs = append(covs, stars[i].Covariate(p))
		}
	}
	return covs
}

func binPValues(stars []svcat.Object, p svbin.Parameter, edges []float64, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range stars {
		s := &stars[i]
		if s.Flag != 0 || math.IsNaN(s.PValue) {
			continue
		}
		if b, ok := svbin.Index(edges, s.Covariate(p)); ok {
			out[b] = append(out[b], s.PValue)
		}
	}
	return out
}
