// Public domain.

package svbin_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shevalid/svbin"
)

func TestParseSpec(t *testing.T) {
	for _, bad := range []string{
		"", "5", "abc", "1 2 x", "3 2 1", "1 1 2",
		"auto", "auto-", "auto-0", "auto--1", "auto-x",
	} {
		_, err := svbin.ParseSpec(bad)
		assert.Error(t, err, "input %q", bad)
	}

	sp, err := svbin.ParseSpec("0 10 30 1e99")
	require.NoError(t, err)
	assert.False(t, sp.Auto())
	assert.Equal(t, []float64{0, 10, 30, 1e99}, sp.Edges(nil))

	sp, err = svbin.ParseSpec("auto-4")
	require.NoError(t, err)
	assert.True(t, sp.Auto())
	assert.Equal(t, 4, sp.NumQuantiles())
}

func TestIndex(t *testing.T) {
	edges := []float64{0, 10, 30, 100}

	x, ok := svbin.Index(edges, 5)
	require.True(t, ok)
	assert.Equal(t, 0, x)

	// Intervals are half-open: a value on an interior edge belongs to the
	// upper bin.
	x, ok = svbin.Index(edges, 10)
	require.True(t, ok)
	assert.Equal(t, 1, x)

	x, ok = svbin.Index(edges, 99.9)
	require.True(t, ok)
	assert.Equal(t, 2, x)

	for _, v := range []float64{-1, 100, 200, math.NaN()} {
		_, ok := svbin.Index(edges, v)
		assert.False(t, ok, "value %v", v)
	}
}

func TestQuantileEdgesEqualCounts(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i + 1)
	}
	edges := svbin.QuantileEdges(data, 4)
	require.Equal(t, 4, svbin.NumBins(edges))
	assert.Equal(t, svbin.LimitMin, edges[0])
	assert.Equal(t, svbin.LimitMax, edges[4])

	counts := make([]int, 4)
	for _, v := range data {
		x, ok := svbin.Index(edges, v)
		require.True(t, ok, "value %v fell outside the edges", v)
		counts[x]++
	}
	for b, c := range counts {
		assert.Equal(t, 25, c, "bin %d", b)
	}
}

func TestQuantileEdgesUnevenCounts(t *testing.T) {
	// 10 values into 4 bins: counts can only differ by one.
	data := []float64{3, 1, 4, 1.5, 9, 2.6, 5.3, 5.8, 9.7, 9.3}
	edges := svbin.QuantileEdges(data, 4)
	require.True(t, sortedStrictly(edges))

	counts := make([]int, 4)
	total := 0
	for _, v := range data {
		if x, ok := svbin.Index(edges, v); ok {
			counts[x]++
			total++
		}
	}
	assert.Equal(t, len(data), total)
	mn, mx := counts[0], counts[0]
	for _, c := range counts[1:] {
		if c < mn {
			mn = c
		}
		if c > mx {
			mx = c
		}
	}
	assert.LessOrEqual(t, mx-mn, 1)
}

func TestQuantileEdgesDegenerateData(t *testing.T) {
	// All values identical: edges still strictly increase and every value
	// lands in exactly one bin.
	data := []float64{7, 7, 7, 7, 7}
	edges := svbin.QuantileEdges(data, 4)
	require.Equal(t, 4, svbin.NumBins(edges))
	require.True(t, sortedStrictly(edges))

	total := 0
	for _, v := range data {
		if _, ok := svbin.Index(edges, v); ok {
			total++
		}
	}
	assert.Equal(t, len(data), total)
}

func TestQuantileEdgesNoData(t *testing.T) {
	edges := svbin.QuantileEdges(nil, 3)
	require.Equal(t, 3, svbin.NumBins(edges))
	assert.True(t, sortedStrictly(edges))

	edges = svbin.QuantileEdges([]float64{math.NaN(), math.Inf(1)}, 3)
	require.Equal(t, 3, svbin.NumBins(edges))
	assert.True(t, sortedStrictly(edges))
}

func sortedStrictly(edges []float64) bool {
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return false
		}
	}
	return true
}
