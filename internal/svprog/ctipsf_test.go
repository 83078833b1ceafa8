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
	"shevalid/svprod"
	"shevalid/svres"
)

// writePsfFixture writes a PSF ellipticity table whose g1 trend against
// readout distance has the given slope below and above an SNR of 50.
func writePsfFixture(t *testing.T, path string, lowSlope, highSlope float64) {
	t.Helper()
	src := &xrand.PCGSource{}
	src.Seed(43)
	rng := xrand.New(src)

	objs := make([]svcat.Object, 100)
	for i := range objs {
		y := 20 * float64(i)
		snr := float64(i + 1)
		slope := lowSlope
		if snr > 50 {
			slope = highSlope
		}
		objs[i] = svcat.Object{
			ID: int64(i + 1),
			X:  100, Y: y,
			G1:    slope*y + 1e-3*rng.NormFloat64(),
			G1Err: 1e-2, G2Err: 1e-2,
			Weight: 1,
			SNR:    snr,
			Bg:     1, Colour: 1, Size: 1, Epoch: 1,
		}
	}
	require.NoError(t, svcat.WriteShearCatalog(path, objs))
}

func runCtiPsf(t *testing.T, lowSlope, highSlope float64) *svprod.Product {
	t.Helper()
	dir := t.TempDir()
	cat := filepath.Join(dir, "psf.fits")
	writePsfFixture(t, cat, lowSlope, highSlope)

	svprog.RunCtiPsf(svprog.RunEnv{Workdir: dir}, cat)

	p, err := svprod.Read(filepath.Join(dir, "she_validation_test_results_cti_psf.xml"))
	require.NoError(t, err)
	// All bin parameters except the single unbounded bin.
	require.Equal(t, 5, p.Data.NumberOfTests)
	return p
}

func TestRunCtiPsfConsistentTrendPasses(t *testing.T) {
	// A steady trend is allowed; only a change between bins can fail.
	p := runCtiPsf(t, 0.01, 0.01)
	for _, vt := range p.Data.Tests {
		assert.Equal(t, svres.ResultPass, vt.GlobalResult, vt.TestID)
	}
}

func TestRunCtiPsfFailsOnTrendChange(t *testing.T) {
	p := runCtiPsf(t, 0.01, 0.05)
	failed := 0
	for _, vt := range p.Data.Tests {
		if vt.GlobalResult == svres.ResultFail {
			failed++
		}
	}
	assert.Greater(t, failed, 0, "the SNR-binned case sees the slope jump")
}
