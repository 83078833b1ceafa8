// Public domain.

package svprog

import (
	"fmt"

	"github.com/soniakeys/exit"
	"go.uber.org/zap"

	"shevalid/svbin"
	"shevalid/svcat"
	"shevalid/svplot"
	"shevalid/svprod"
	"shevalid/svres"
)

const (
	ctiGalTestID      = "T-SHE-000010-CTI-gal"
	ctiGalRequirement = "R-SHE-CAL-F-140"
	ctiGalDescription = "Slope of galaxy ellipticity component g1 versus distance to the readout register."
	ctiGalBanner      = "OU-SHE CTI-Gal Analysis Results File Directory"
	ctiGalProductName = "she_validation_test_results_cti_gal.xml"
	ctiGalDirName     = "SheCtiGalResultsDirectory.txt"
)

// RunCtiGal validates galaxy shear measurements against charge transfer
// inefficiency: within every bin, the regression of g1 on readout register
// distance must be consistent with zero slope.  shearCats maps shear
// measurement method names to catalog paths.
func RunCtiGal(env RunEnv, shearCats map[string]string) {
	defer exit.Handler()
	lg, fc := env.setup()
	defer lg.Sync()

	cfg, err := fc.Resolve("cti_gal", env.Overrides)
	if err != nil {
		exit.Log(err)
	}
	fit := fitterFor(cfg)

	var cases []*svres.TestCaseResult
	var files []string
	binBase := 0
	for _, method := range sortedKeys(shearCats) {
		objs, err := svcat.ReadShearCatalog(shearCats[method])
		if err != nil {
			exit.Log(err)
		}
		svcat.AddReadoutDistance(objs, cfg.DetectorHeight)
		lg.Debug("read shear catalog",
			zap.String("method", method), zap.Int("objects", len(objs)))

		for _, p := range svbin.All {
			tc := buildRegressionCase(caseID(ctiGalTestID, method, p),
				method, p, objs, cfg.BinLimits[p], nil,
				func(o *svcat.Object) float64 { return o.ReadoutDist },
				func(o *svcat.Object) float64 { return o.G1 },
				func(o *svcat.Object) float64 { return o.G1Err },
				fit, binBase)
			binBase += len(tc.Bins)

			if p == svbin.Tot && len(tc.Bins) == 1 {
				var x, y []float64
				for i := range objs {
					if objs[i].Valid() {
						x = append(x, objs[i].ReadoutDist)
						y = append(y, objs[i].G1)
					}
				}
				name := fmt.Sprintf("cti_gal_%s_tot.png", method)
				err := svplot.ScatterFit(env.path(name), method+" g1 vs readout distance",
					"readout distance [pix]", "g1", x, y, tc.Bins[0].Fit)
				if err != nil {
					lg.Warn("figure render failed", zap.Error(err))
				} else {
					tc.Figures = append(tc.Figures, name)
					files = append(files, name)
				}
			}
			cases = append(cases, tc)
		}
	}

	finalizeRegressionCases(cases, svres.ToZero, cfg)

	prod := svprod.New(Version)
	for _, tc := range cases {
		prod.AddTestCase(tc, ctiGalDescription, ctiGalRequirement, "Max slope Z among bins")
	}
	writeProduct(env, lg, prod, ctiGalProductName, ctiGalBanner, ctiGalDirName, files)
}
