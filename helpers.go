package scheduler

import (
	"math"
)

func ternary[T any](condition bool, value1, value2 T) T {
	if condition {
		return value1
	}

	return value2
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var total float64

	for _, value := range values {
		total += value
	}

	return total / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	average := mean(values)

	var variance float64

	for _, value := range values {
		variance += (value - average) * (value - average)
	}

	return math.Sqrt(variance / float64(len(values)))
}
