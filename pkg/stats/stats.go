// Package stats provides the numeric helpers shared by the scoring and trend analyzers.
package stats

import "gonum.org/v1/gonum/stat"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Floor0 returns v, or 0 when v is negative.
func Floor0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// PopStdDev returns the population standard deviation of xs.
// Returns 0 for fewer than two values.
func PopStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	_, std := stat.PopMeanStdDev(xs, nil)
	return std
}

// MinMax returns the smallest and largest value of xs.
// Returns zeros for an empty slice.
func MinMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// ChangePercent returns the relative change from previous to current in percent.
// A zero previous value yields 0 when current is also 0, otherwise +/-100.
func ChangePercent(current, previous float64) float64 {
	if previous == 0 {
		switch {
		case current > 0:
			return 100
		case current < 0:
			return -100
		default:
			return 0
		}
	}
	return (current - previous) / previous * 100
}

// Slope returns the least-squares slope of ys over their index (0, 1, 2, ...).
// Returns 0 if fewer than 2 points are provided.
func Slope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}
