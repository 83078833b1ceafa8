// Public domain.

package svprog

import (
	"github.com/soniakeys/exit"
	"go.uber.org/zap"

	"shevalid/svbin"
	"shevalid/svcat"
	"shevalid/svprod"
	"shevalid/svres"
)

const (
	ctiPsfTestID      = "T-SHE-000009-CTI-PSF"
	ctiPsfRequirement = "R-SHE-CAL-F-120"
	ctiPsfDescription = "Consistency of the PSF ellipticity trend versus readout register distance between adjacent bins."
	ctiPsfBanner      = "OU-SHE CTI-PSF Analysis Results File Directory"
	ctiPsfProductName = "she_validation_test_results_cti_psf.xml"
	ctiPsfDirName     = "SheCtiPsfResultsDirectory.txt"
)

// RunCtiPsf validates PSF ellipticity measurements against charge transfer
// inefficiency.  Unlike the galaxy test, there is no zero expectation for
// the per-bin slope; instead each bin's slope must agree with the previous
// bin's, so only a change of the trend across bins can fail.  psfCat is a
// PSF ellipticity table in shear catalog column layout.
func RunCtiPsf(env RunEnv, psfCat string) {
	defer exit.Handler()
	lg, fc := env.setup()
	defer lg.Sync()

	cfg, err := fc.Resolve("cti_psf", env.Overrides)
	if err != nil {
		exit.Log(err)
	}
	fit := fitterFor(cfg)

	objs, err := svcat.ReadShearCatalog(psfCat)
	if err != nil {
		exit.Log(err)
	}
	svcat.AddReadoutDistance(objs, cfg.DetectorHeight)
	lg.Debug("read PSF ellipticity catalog", zap.Int("objects", len(objs)))

	var cases []*svres.TestCaseResult
	binBase := 0
	for _, p := range svbin.All {
		if p == svbin.Tot {
			// A single bin has no neighbor to difference against.
			continue
		}
		tc := buildRegressionCase(caseID(ctiPsfTestID, "PSF", p),
			"PSF", p, objs, cfg.BinLimits[p], nil,
			func(o *svcat.Object) float64 { return o.ReadoutDist },
			func(o *svcat.Object) float64 { return o.G1 },
			func(o *svcat.Object) float64 { return o.G1Err },
			fit, binBase)
		binBase += len(tc.Bins)
		cases = append(cases, tc)
	}

	finalizeRegressionCases(cases, svres.Difference, cfg)

	prod := svprod.New(Version)
	for _, tc := range cases {
		prod.AddTestCase(tc, ctiPsfDescription, ctiPsfRequirement, "Max slope difference Z among bins")
	}
	writeProduct(env, lg, prod, ctiPsfProductName, ctiPsfBanner, ctiPsfDirName, nil)
}
