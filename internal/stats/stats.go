// Package stats holds the statistical primitives shared by the financial
// detectors, the inconsistency scanner and the confrontation generator.
// Everything here is pure arithmetic over in-memory slices; degenerate
// inputs (empty slices, zero denominators) yield zero values, never panics.
package stats

import "math"

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation, 0 for fewer than two
// samples.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// ZScore returns (value-mean)/stddev, 0 when stddev is 0.
func ZScore(value, mean, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return (value - mean) / stddev
}

// PctChange returns the percentage change from old to new. When old is 0 the
// change is reported as 0 for new==0 and 100 otherwise.
func PctChange(old, new float64) float64 {
	if old == 0 {
		if new == 0 {
			return 0
		}
		return 100
	}
	return (new - old) / math.Abs(old) * 100
}

// SplitHalf splits xs at the midpoint index. The first half gets the extra
// element on odd lengths.
func SplitHalf(xs []float64) (first, second []float64) {
	mid := (len(xs) + 1) / 2
	return xs[:mid], xs[mid:]
}

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// MinMax returns the smallest and largest value; zeros for an empty slice.
func MinMax(xs []float64) (min, max float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimal places, matching how dollar amounts are
// presented.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
