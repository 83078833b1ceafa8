// Public domain.

package svprog

import (
	"fmt"
	"math"

	"github.com/soniakeys/exit"
	"go.uber.org/zap"

	"shevalid/svcat"
	"shevalid/svprod"
	"shevalid/svres"
)

const (
	galInfoTestID      = "T-SHE-000008-gal-info"
	galInfoRequirement = "R-SHE-PRD-F-180"
	galInfoDescription = "Completeness and measurement validity of shear catalogs against the upstream detections."
	galInfoBanner      = "OU-SHE Galaxy Info Analysis Results File Directory"
	galInfoProductName = "she_validation_test_results_gal_info.xml"
	galInfoDirName     = "SheGalInfoResultsDirectory.txt"
)

// ChainsMethod is the pseudo-method name under which an optional LensMC
// chains catalog is validated alongside the shear catalogs.
const ChainsMethod = "LensMC-Chains"

// RunGalInfo validates that every VIS-detected object has a catalog entry
// (the N test case) and that catalog entries carry usable measurements
// (the Data test case), per method.  chainsCat may be empty; the chains
// cases are then reported as not run.
func RunGalInfo(env RunEnv, detectionsPath string, shearCats map[string]string, chainsCat string) {
	defer exit.Handler()
	lg, fc := env.setup()
	defer lg.Sync()

	cfg, err := fc.Resolve("gal_info", env.Overrides)
	if err != nil {
		exit.Log(err)
	}

	dets, err := svcat.ReadDetectionsCatalog(detectionsPath)
	if err != nil {
		exit.Log(err)
	}
	nDetected := 0
	for i := range dets {
		if dets[i].VisDet {
			nDetected++
		}
	}
	lg.Debug("read detections catalog",
		zap.Int("rows", len(dets)), zap.Int("vis_detected", nDetected))

	prod := svprod.New(Version)
	for _, method := range sortedKeys(shearCats) {
		objs, err := svcat.ReadShearCatalog(shearCats[method])
		if err != nil {
			exit.Log(err)
		}
		addGalInfoCases(prod, method, dets, nDetected, objs, cfg.MinFraction)
	}

	if chainsCat != "" {
		objs, err := svcat.ReadShearCatalog(chainsCat)
		if err != nil {
			exit.Log(err)
		}
		addGalInfoCases(prod, ChainsMethod, dets, nDetected, objs, cfg.MinFraction)
	} else {
		for _, kind := range []string{"N", "Data"} {
			tc := &svres.TestCaseResult{
				TestCaseID: fmt.Sprintf("%s-%s-%s", galInfoTestID, kind, ChainsMethod),
				Method:     ChainsMethod,
			}
			tc.FinalizeFraction(math.NaN(), cfg.MinFraction, "No chains catalog provided.")
			prod.AddTestCase(tc, galInfoDescription, galInfoRequirement, "Fraction")
		}
	}

	writeProduct(env, lg, prod, galInfoProductName, galInfoBanner, galInfoDirName, nil)
}

func addGalInfoCases(prod *svprod.Product, method string, dets []svcat.Detection,
	nDetected int, objs []svcat.Object, minFraction float64) {

	byID := make(map[int64]*svcat.Object, len(objs))
	for i := range objs {
		byID[objs[i].ID] = &objs[i]
	}

	matched, validMatched := 0, 0
	for i := range dets {
		if !dets[i].VisDet {
			continue
		}
		o, ok := byID[dets[i].ID]
		if !ok {
			continue
		}
		matched++
		if o.Valid() {
			validMatched++
		}
	}

	completeness := math.NaN()
	if nDetected > 0 {
		completeness = float64(matched) / float64(nDetected)
	}
	nCase := &svres.TestCaseResult{
		TestCaseID: fmt.Sprintf("%s-N-%s", galInfoTestID, method),
		Method:     method,
	}
	nCase.FinalizeFraction(completeness, minFraction,
		fmt.Sprintf("%d of %d VIS-detected objects present in the %s catalog.",
			matched, nDetected, method))
	prod.AddTestCase(nCase, galInfoDescription, galInfoRequirement, "Fraction")

	validFrac := math.NaN()
	if matched > 0 {
		validFrac = float64(validMatched) / float64(matched)
	}
	dataCase := &svres.TestCaseResult{
		TestCaseID: fmt.Sprintf("%s-Data-%s", galInfoTestID, method),
		Method:     method,
	}
	dataCase.FinalizeFraction(validFrac, minFraction,
		fmt.Sprintf("%d of %d matched objects carry a valid measurement.",
			validMatched, matched))
	prod.AddTestCase(dataCase, galInfoDescription, galInfoRequirement, "Fraction")
}
