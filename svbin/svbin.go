// Public domain.

// Package svbin assigns catalog objects to bins along a covariate.
//
// A bin set is an ordered, non-overlapping partition of a covariate's range
// into half-open intervals [e(i), e(i+1)).  Bin limits are configured either
// as an explicit ascending edge list or as "auto-N", which derives N
// quantile bins from the data being binned.
package svbin

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Parameter names a covariate that objects can be binned along.
type Parameter string

const (
	Tot    Parameter = "tot"
	SNR    Parameter = "snr"
	Bg     Parameter = "bg"
	Colour Parameter = "colour"
	Size   Parameter = "size"
	Epoch  Parameter = "epoch"
)

// All lists the bin parameters in canonical order.  Tot is the trivial
// parameter: a single unbounded bin holding every object.
var All = []Parameter{Tot, SNR, Bg, Colour, Size, Epoch}

// Outer limits for unbounded bins.  These stand in for -/+ infinity in
// configuration and reports.
const (
	LimitMin = -1e99
	LimitMax = 1e99
)

const autoHead = "auto"

// A Spec is a parsed bin-limits specification: either an explicit ascending
// edge list, or a request for N quantile-derived bins.
type Spec struct {
	edges     []float64
	quantiles int
}

// ParseSpec parses a bin-limits string.  Accepted forms are a space
// separated ascending list of at least two numeric edges, or "auto-N" for a
// positive integer N.  Anything else is an error; callers treat that as
// fatal at startup.
func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Spec{}, fmt.Errorf("empty bin limits")
	}
	if strings.HasPrefix(s, autoHead) {
		rest := strings.TrimPrefix(s, autoHead)
		if !strings.HasPrefix(rest, "-") {
			return Spec{}, fmt.Errorf("bin limits %q: expected %q", s, autoHead+"-N")
		}
		n, err := strconv.Atoi(rest[1:])
		if err != nil {
			return Spec{}, fmt.Errorf("bin limits %q: %v", s, err)
		}
		if n <= 0 {
			return Spec{}, fmt.Errorf("bin limits %q: quantile count must be positive", s)
		}
		return Spec{quantiles: n}, nil
	}
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return Spec{}, fmt.Errorf("bin limits %q: need at least two edges", s)
	}
	edges := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Spec{}, fmt.Errorf("bin limits %q: %v", s, err)
		}
		edges[i] = v
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Spec{}, fmt.Errorf("bin limits %q: edges must be strictly increasing", s)
		}
	}
	return Spec{edges: edges}, nil
}

// Auto reports whether the spec requests quantile-derived edges.
func (sp Spec) Auto() bool { return sp.quantiles > 0 }

// NumQuantiles returns N for an "auto-N" spec, 0 otherwise.
func (sp Spec) NumQuantiles() int { return sp.quantiles }

// Edges returns the concrete edge list for the spec.  In auto mode the
// edges are derived from data; explicit edges ignore it.
func (sp Spec) Edges(data []float64) []float64 {
	if sp.Auto() {
		return QuantileEdges(data, sp.quantiles)
	}
	e := make([]float64, len(sp.edges))
	copy(e, sp.edges)
	return e
}

// NumBins returns the number of bins delimited by an edge list.
func NumBins(edges []float64) int {
	if len(edges) < 2 {
		return 0
	}
	return len(edges) - 1
}

// Index returns the bin index for a value, scanning ascending edges the
// same way the value would be counted against them.  Values outside the
// outermost edges, and NaN, are excluded rather than being an error.
func Index(edges []float64, v float64) (int, bool) {
	if len(edges) < 2 || math.IsNaN(v) {
		return 0, false
	}
	if v < edges[0] || v >= edges[len(edges)-1] {
		return 0, false
	}
	x := 0
	for v >= edges[x+1] {
		x++
	}
	return x, true
}

// QuantileEdges derives n+1 bin edges splitting data into n empirical
// quantile bins.  Non-finite values are ignored.  The outer edges are
// always LimitMin and LimitMax.  Interior edges that collide exactly with a
// data value are shifted to the midpoint toward a neighboring value, in
// whichever direction distributes bin counts more evenly, so that tied
// values land in the lower bin deterministically.
//
// Fewer than n distinct values yields degenerate (possibly empty) bins;
// that is not an error, downstream aggregation marks such bins as
// insufficiently populated.
func QuantileEdges(data []float64, n int) []float64 {
	sorted := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		// Dummy evenly spaced edges; all bins will be empty.
		edges := make([]float64, n+1)
		for i := range edges {
			edges[i] = LimitMin + float64(i)*(LimitMax-LimitMin)/float64(n)
		}
		return edges
	}
	sort.Float64s(sorted)

	m := len(sorted)
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		// Empirical quantile at position p*m (alphap=0, betap=1).
		pos := float64(i) * float64(m) / float64(n)
		k := int(math.Floor(pos))
		g := pos - float64(k)
		switch {
		case k < 1:
			edges[i] = sorted[0]
		case k >= m:
			edges[i] = sorted[m-1]
		default:
			edges[i] = (1-g)*sorted[k-1] + g*sorted[k]
		}
	}
	edges[0] = LimitMin
	edges[n] = LimitMax

	if !edgesCollide(edges, sorted) {
		return fixEdgeOrder(edges)
	}

	// Some interior edge equals a data value.  Build candidate edge lists
	// shifted down and up to midpoints between neighboring values, then
	// keep whichever spreads the per-bin counts more evenly.
	down := append([]float64{}, edges...)
	up := append([]float64{}, edges...)
	for i := 1; i < n; i++ {
		e := edges[i]
		if below, ok := closestBelow(sorted, e); ok {
			down[i] = (below + e) / 2
		}
		if above, ok := closestAbove(sorted, e); ok {
			up[i] = (above + e) / 2
		}
	}
	if countSpread(down, sorted) < countSpread(up, sorted) {
		return fixEdgeOrder(down)
	}
	return fixEdgeOrder(up)
}

func edgesCollide(edges, sorted []float64) bool {
	for i := 1; i < len(edges)-1; i++ {
		j := sort.SearchFloat64s(sorted, edges[i])
		if j < len(sorted) && sorted[j] == edges[i] {
			return true
		}
	}
	return false
}

func closestBelow(sorted []float64, e float64) (float64, bool) {
	j := sort.SearchFloat64s(sorted, e)
	if j == 0 {
		return 0, false
	}
	return sorted[j-1], true
}

func closestAbove(sorted []float64, e float64) (float64, bool) {
	j := sort.Search(len(sorted), func(i int) bool { return sorted[i] > e })
	if j == len(sorted) {
		return 0, false
	}
	return sorted[j], true
}

// countSpread measures how unevenly an edge list splits the data.
func countSpread(edges, sorted []float64) float64 {
	counts := make([]float64, NumBins(edges))
	for _, v := range sorted {
		if x, ok := Index(edges, v); ok {
			counts[x]++
		}
	}
	return stat.Variance(counts, nil)
}

// fixEdgeOrder collapses any non-increasing run left by degenerate data so
// the strictly-increasing edge invariant holds.  Collapsed bins are empty.
func fixEdgeOrder(edges []float64) []float64 {
	for i := 1; i < len(edges)-1; i++ {
		if !(edges[i] > edges[i-1]) {
			edges[i] = math.Nextafter(edges[i-1], math.Inf(1))
		}
	}
	return edges
}
