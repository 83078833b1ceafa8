// Public domain.

package svprod_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shevalid/svprod"
	"shevalid/svres"
)

func TestNewHeader(t *testing.T) {
	p := svprod.New("9.1")
	assert.NotEmpty(t, p.Header.ProductID)
	assert.Equal(t, svprod.SoftwareName, p.Header.SoftwareName)
	assert.Equal(t, "9.1", p.Header.SoftwareRelease)
	_, err := time.Parse(time.RFC3339, p.Header.CreationDate)
	assert.NoError(t, err)

	q := svprod.New("9.1")
	assert.NotEqual(t, p.Header.ProductID, q.Header.ProductID)
}

func TestProductRoundTrip(t *testing.T) {
	tc := &svres.TestCaseResult{
		TestCaseID:    "T-TEST-001-case-KSB-snr",
		Result:        svres.ResultFail,
		MeasuredValue: 7.25,
		Comment:       "INFO: " + svres.CommentMultiple,
		Supp: []svres.SupplementaryInfo{
			{Key: "SLOPE_INFO", Description: "d", Message: "slope = 1\n"},
		},
		Figures: []string{"fig.png"},
	}

	p := svprod.New("9.1")
	p.AddTestCase(tc, "description", "R-TEST-001", "Max Z")
	require.Equal(t, 1, p.Data.NumberOfTests)

	path := filepath.Join(t.TempDir(), "results.xml")
	require.NoError(t, p.Write(path))

	got, err := svprod.Read(path)
	require.NoError(t, err)
	require.Len(t, got.Data.Tests, 1)
	vt := got.Data.Tests[0]
	assert.Equal(t, "T-TEST-001-case-KSB-snr", vt.TestID)
	assert.Equal(t, svres.ResultFail, vt.GlobalResult)
	require.Len(t, vt.Requirements, 1)
	req := vt.Requirements[0]
	assert.Equal(t, "R-TEST-001", req.ID)
	assert.Equal(t, svres.ResultFail, req.ValidationResult)
	assert.Equal(t, 7.25, req.MeasuredValue.Value)
	require.Len(t, req.Supp, 1)
	assert.Equal(t, "SLOPE_INFO", req.Supp[0].Key)
	assert.Equal(t, "slope = 1\n", req.Supp[0].Value)
	assert.Equal(t, []string{"fig.png"}, vt.AnalysisFiles)
}

func TestWriteDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir.txt")
	files := []string{"/work/a.xml", "b.png"}
	require.NoError(t, svprod.WriteDirectory(path, "Results File Directory", files))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "### Results File Directory ###")
	assert.Contains(t, s, "a.xml")
	assert.Contains(t, s, "b.png")
	assert.NotContains(t, s, "/work/")
}
