package flow

import (
	"math"
	"slices"
)

// Round2 rounds to two decimal places, the precision used by all aggregate
// averages in reports.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateMedian finds the median of a slice of floats; even-length inputs
// return the mean of the two middle values.
func CalculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// CalculatePercentile returns the p-th percentile (0-100) of values using
// the nearest-rank method on a sorted copy.
func CalculatePercentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	idx := int(float64(len(temp)) * p / 100.0)
	if idx >= len(temp) {
		idx = len(temp) - 1
	}
	return temp[idx]
}

// MeanStddev returns the mean and population standard deviation.
func MeanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
