// Package stats provides the aggregate functions used across the analysis
// stages. Ties are always resolved in favour of the first occurrence.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"example.com/backstage/services/telematics/internal/models"
)

// Count is the number of occurrences of a value
type Count[K comparable] struct {
	Value K
	Count int
}

// Mean returns the arithmetic mean of xs. ok is false when xs is empty.
func Mean(xs []float64) (mean float64, ok bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}

// Sum returns the sum of xs, 0 for an empty slice
func Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}

// Quantile returns the p-quantile of xs using linear interpolation between the
// closest ranks: the value at position p*(n-1) of the sorted data.
func Quantile(xs []float64, p float64) (float64, bool) {
	if len(xs) == 0 || p < 0 || p > 1 {
		return 0, false
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, true
}

// ValueCounts counts every distinct value, ordered by descending count.
// Equal counts keep the order in which the values first appeared.
func ValueCounts[K comparable](values []K) []Count[K] {
	index := make(map[K]int)
	var counts []Count[K]
	for _, v := range values {
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count[K]{Value: v, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Mode returns the most frequent value and its count
func Mode[K comparable](values []K) (K, int, bool) {
	counts := ValueCounts(values)
	if len(counts) == 0 {
		var zero K
		return zero, 0, false
	}
	return counts[0].Value, counts[0].Count, true
}

// CountWhere counts the items matching pred
func CountWhere[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, item := range items {
		if pred(item) {
			n++
		}
	}
	return n
}

// Column projects one numeric column out of a table
func Column[T any](items []T, get func(T) float64) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		out[i] = get(item)
	}
	return out
}

// Project maps every item to a comparable key, e.g. for ValueCounts
func Project[T any, K comparable](items []T, key func(T) K) []K {
	out := make([]K, len(items))
	for i, item := range items {
		out[i] = key(item)
	}
	return out
}

// ArgMax returns the index of the first maximum of xs
func ArgMax(xs []float64) (int, bool) {
	if len(xs) == 0 {
		return -1, false
	}
	return floats.MaxIdx(xs), true
}

// NLargest returns the indices of the n largest values in descending order.
// Equal values keep their original order.
func NLargest(xs []float64, n int) []int {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return xs[idx[a]] > xs[idx[b]]
	})
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx
}

// Pearson returns the Pearson correlation coefficient of x and y, NaN when it
// is undefined (fewer than two points or a constant series).
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// Describe computes the descriptive statistics of one telemetry column.
// An empty column yields zero values.
func Describe(column string, xs []float64) models.Statistics {
	s := models.Statistics{Column: column, Count: len(xs)}
	if len(xs) == 0 {
		return s
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)

	s.Min = sorted[0]
	s.Max = sorted[n-1]
	s.Mean, s.StdDeviation = stat.PopMeanStdDev(xs, nil)
	s.Median, _ = Quantile(sorted, 0.5)
	s.Percentile95 = sorted[int(0.95*float64(n-1))]

	if s.Mean != 0 {
		s.CoefficientOfVariation = s.StdDeviation / math.Abs(s.Mean)
	}

	lower := s.Mean - 2*s.StdDeviation
	upper := s.Mean + 2*s.StdDeviation
	s.OutlierCount = CountWhere(xs, func(v float64) bool { return v < lower || v > upper })

	if n >= 2 {
		index := make([]float64, n)
		for i := range index {
			index[i] = float64(i)
		}
		_, s.TrendSlope = stat.LinearRegression(index, xs, nil, false)
	}

	return s
}
