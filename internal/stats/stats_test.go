package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	m, ok := Mean([]float64{10, 20, 60})
	require.True(t, ok)
	assert.InDelta(t, 30.0, m, 1e-12)

	_, ok = Mean(nil)
	assert.False(t, ok)
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.0, Sum(nil))
	assert.InDelta(t, 6.5, Sum([]float64{1, 2.5, 3}), 1e-12)
}

func TestQuantile(t *testing.T) {
	xs := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	q, ok := Quantile(xs, 0.8)
	require.True(t, ok)
	assert.InDelta(t, 8.2, q, 1e-9)

	q, _ = Quantile(xs, 0.5)
	assert.InDelta(t, 5.5, q, 1e-9)

	q, _ = Quantile(xs, 0)
	assert.Equal(t, 1.0, q)
	q, _ = Quantile(xs, 1)
	assert.Equal(t, 10.0, q)

	q, _ = Quantile([]float64{42}, 0.8)
	assert.Equal(t, 42.0, q)

	_, ok = Quantile(nil, 0.8)
	assert.False(t, ok)

	// input is not reordered
	assert.Equal(t, 10.0, xs[0])
}

func TestValueCountsKeepsFirstSeenOrderOnTies(t *testing.T) {
	counts := ValueCounts([]string{"B", "A", "A", "B", "C"})
	require.Len(t, counts, 3)
	assert.Equal(t, Count[string]{Value: "B", Count: 2}, counts[0])
	assert.Equal(t, Count[string]{Value: "A", Count: 2}, counts[1])
	assert.Equal(t, Count[string]{Value: "C", Count: 1}, counts[2])
}

func TestMode(t *testing.T) {
	v, n, ok := Mode([]string{"Speeding", "Speeding", "HardBrake"})
	require.True(t, ok)
	assert.Equal(t, "Speeding", v)
	assert.Equal(t, 2, n)

	v, n, _ = Mode([]string{"HardBrake", "Speeding"})
	assert.Equal(t, "HardBrake", v)
	assert.Equal(t, 1, n)

	_, _, ok = Mode([]string{})
	assert.False(t, ok)
}

func TestCountWhere(t *testing.T) {
	n := CountWhere([]int{1, 4, 5, 2, 4}, func(v int) bool { return v >= 4 })
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, CountWhere([]int(nil), func(int) bool { return true }))
}

func TestProject(t *testing.T) {
	type row struct {
		kind string
		n    int
	}
	rows := []row{{"a", 1}, {"b", 2}, {"a", 3}}

	assert.Equal(t, []string{"a", "b", "a"}, Project(rows, func(r row) string { return r.kind }))
	assert.Empty(t, Project(nil, func(r row) int { return r.n }))
}

func TestArgMaxFirstOccurrence(t *testing.T) {
	i, ok := ArgMax([]float64{3, 7, 1, 7})
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = ArgMax(nil)
	assert.False(t, ok)
}

func TestNLargest(t *testing.T) {
	xs := []float64{5, 9, 1, 9, 3}
	assert.Equal(t, []int{1, 3, 0}, NLargest(xs, 3))
	assert.Equal(t, []int{1, 3, 0, 4, 2}, NLargest(xs, 10))
	assert.Empty(t, NLargest(nil, 10))
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
}

func TestDescribe(t *testing.T) {
	s := Describe("Current Speed", []float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, "Current Speed", s.Column)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 4.5, s.Median, 1e-12)
	assert.InDelta(t, 2.0, s.StdDeviation, 1e-12)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 7.0, s.Percentile95)
	assert.InDelta(t, 0.4, s.CoefficientOfVariation, 1e-12)
	assert.Equal(t, 0, s.OutlierCount)
	assert.Greater(t, s.TrendSlope, 0.0)
}

func TestDescribeOutliersAndEmpty(t *testing.T) {
	s := Describe("x", []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 100})
	assert.Equal(t, 1, s.OutlierCount)

	empty := Describe("x", nil)
	assert.Equal(t, 0, empty.Count)
	assert.Equal(t, 0.0, empty.Mean)
	assert.Equal(t, 0.0, empty.TrendSlope)
}
