// Package calc holds the small numeric summaries the offline
// explorer prints per column.
package calc

import (
	"math"
	"sort"
)

func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	min := xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
	}
	return min
}

func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	return max
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// TrimmedMean drops frac of the sorted values from each end before
// averaging, which tames the spikes a loose sensor wire produces.
func TrimmedMean(xs []float64, frac float64) float64 {
	if len(xs) == 0 || frac < 0 || frac >= 0.5 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	drop := int(float64(len(sorted)) * frac)
	trimmed := sorted[drop : len(sorted)-drop]
	return Mean(trimmed)
}
