// Public domain.

package svprog

import (
	"fmt"
	"math"

	"github.com/soniakeys/exit"
	"go.uber.org/zap"

	"shevalid/svbin"
	"shevalid/svcat"
	"shevalid/svprod"
	"shevalid/svres"
)

const (
	shearBiasTestID       = "T-SHE-000007-shear-bias"
	shearBiasMRequirement = "R-SHE-CAL-F-070"
	shearBiasDescription  = "Multiplicative (m) and additive (c) shear bias from regression of measured against true shear."
	shearBiasBanner       = "OU-SHE Shear Bias Analysis Results File Directory"
	shearBiasProductName  = "she_validation_test_results_shear_bias.xml"
	shearBiasDirName      = "SheShearBiasResultsDirectory.txt"
)

// RunShearBias validates shear estimation bias on simulated data: within
// every bin, the regression of measured shear on true input shear must
// have slope consistent with 1 (m = slope-1 consistent with 0) and
// intercept (c) consistent with 0, per shear component.  matchedCats maps
// method names to catalogs matched against true input shears.  Objects
// whose true shear magnitude reaches the configured maximum are excluded;
// such extreme inputs are outside the estimators' validity range.
func RunShearBias(env RunEnv, matchedCats map[string]string) {
	defer exit.Handler()
	lg, fc := env.setup()
	defer lg.Sync()

	cfg, err := fc.Resolve("shear_bias", env.Overrides)
	if err != nil {
		exit.Log(err)
	}
	fit := fitterFor(cfg)

	inRange := func(o *svcat.Object) bool {
		g := math.Hypot(o.TrueG1, o.TrueG2)
		return !math.IsNaN(g) && g < cfg.MaxGIn
	}

	var cases []*svres.TestCaseResult
	binBase := 0
	for _, method := range sortedKeys(matchedCats) {
		objs, err := svcat.ReadMatchedCatalog(matchedCats[method])
		if err != nil {
			exit.Log(err)
		}
		lg.Debug("read matched catalog",
			zap.String("method", method), zap.Int("objects", len(objs)))

		for comp := 1; comp <= 2; comp++ {
			xOf := func(o *svcat.Object) float64 { return o.TrueG1 }
			yOf := func(o *svcat.Object) float64 { return o.G1 }
			eOf := func(o *svcat.Object) float64 { return o.G1Err }
			if comp == 2 {
				xOf = func(o *svcat.Object) float64 { return o.TrueG2 }
				yOf = func(o *svcat.Object) float64 { return o.G2 }
				eOf = func(o *svcat.Object) float64 { return o.G2Err }
			}
			for _, p := range svbin.All {
				id := fmt.Sprintf("%s-g%d-%s-%s", shearBiasTestID, comp, method, p)
				tc := buildRegressionCase(id, method, p, objs, cfg.BinLimits[p],
					inRange, xOf, yOf, eOf, fit, binBase)
				binBase += len(tc.Bins)
				cases = append(cases, tc)
			}
		}
	}

	finalizeRegressionCases(cases, svres.BiasMode, cfg)

	prod := svprod.New(Version)
	for _, tc := range cases {
		prod.AddTestCase(tc, shearBiasDescription, shearBiasMRequirement, "Max m bias Z among bins")
	}
	writeProduct(env, lg, prod, shearBiasProductName, shearBiasBanner, shearBiasDirName, nil)
}
