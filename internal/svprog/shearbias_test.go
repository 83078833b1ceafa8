// Public domain.

package svprog_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"

	"shevalid/internal/svprog"
	"shevalid/svcat"
	"shevalid/svconf"
	"shevalid/svprod"
	"shevalid/svres"
)

// writeMatchedFixture writes a matched catalog whose measured shear is
// m-biased against the true shear: g = (1+m)*g_true + noise.
func writeMatchedFixture(t *testing.T, path string, m float64) {
	t.Helper()
	src := &xrand.PCGSource{}
	src.Seed(44)
	rng := xrand.New(src)

	objs := make([]svcat.Object, 100)
	for i := range objs {
		tg1 := -0.45 + 0.009*float64(i)
		tg2 := 0.45 - 0.009*float64(i)
		objs[i] = svcat.Object{
			ID: int64(i + 1),
			X:  100, Y: 500,
			TrueG1: tg1,
			TrueG2: tg2,
			G1:     (1+m)*tg1 + 1e-3*rng.NormFloat64(),
			G2:     (1+m)*tg2 + 1e-3*rng.NormFloat64(),
			G1Err:  1e-2, G2Err: 1e-2,
			Weight: 1,
			SNR:    float64(i + 1),
			Bg:     1, Colour: 1, Size: 1, Epoch: 1,
		}
	}
	require.NoError(t, svcat.WriteMatchedCatalog(path, objs))
}

func runShearBias(t *testing.T, m float64, ov *svconf.Overrides) *svprod.Product {
	t.Helper()
	dir := t.TempDir()
	cat := filepath.Join(dir, "lensmc.fits")
	writeMatchedFixture(t, cat, m)

	env := svprog.RunEnv{Workdir: dir, Overrides: ov}
	svprog.RunShearBias(env, map[string]string{"LensMC": cat})

	p, err := svprod.Read(filepath.Join(dir, "she_validation_test_results_shear_bias.xml"))
	require.NoError(t, err)
	// Two shear components times six bin parameters.
	require.Equal(t, 12, p.Data.NumberOfTests)
	return p
}

func TestRunShearBiasUnbiasedPasses(t *testing.T) {
	p := runShearBias(t, 0, nil)
	for _, vt := range p.Data.Tests {
		assert.Equal(t, svres.ResultPass, vt.GlobalResult, vt.TestID)
	}
}

func TestRunShearBiasFailsOnBias(t *testing.T) {
	// m = 0.5 against an m error around 7e-3 per bin.
	p := runShearBias(t, 0.5, nil)
	for _, vt := range p.Data.Tests {
		assert.Equal(t, svres.ResultFail, vt.GlobalResult, vt.TestID)
	}
}

func TestRunShearBiasBootstrap(t *testing.T) {
	on := true
	n := 200
	ov := &svconf.Overrides{}
	ov.Bootstrap = &on
	ov.NBootstrap = &n
	p := runShearBias(t, 0, ov)
	for _, vt := range p.Data.Tests {
		assert.Equal(t, svres.ResultPass, vt.GlobalResult, vt.TestID)
	}
}
