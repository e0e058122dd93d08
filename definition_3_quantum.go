package scheduler

import (
	"math"
	"sort"
)

const _DefaultQuantum = 100.

// QuantumBounds clamps a computed quantum into a usable range.
type QuantumBounds struct {
	Min float64
	Max float64
}

func (bounds QuantumBounds) clamp(quantum float64) float64 {
	return math.Max(bounds.Min, math.Min(bounds.Max, quantum))
}

var _SystemQuantumBounds = QuantumBounds{Min: 50, Max: 500}

type quantumBoundsTier struct {
	maxPopulation int
	bounds        QuantumBounds
}

// Tighter bounds for small task populations, wider for large ones.
// The first tier whose population bound is not exceeded wins.
var quantumBoundsTiers = []quantumBoundsTier{
	{maxPopulation: 100, bounds: QuantumBounds{Min: 50, Max: 300}},
	{maxPopulation: 1000, bounds: QuantumBounds{Min: 75, Max: 400}},
	{maxPopulation: math.MaxInt, bounds: QuantumBounds{Min: 100, Max: 500}},
}

func BoundsForPopulation(taskCount int) QuantumBounds {
	for _, tier := range quantumBoundsTiers {
		if taskCount <= tier.maxPopulation {
			return tier.bounds
		}
	}

	return quantumBoundsTiers[len(quantumBoundsTiers)-1].bounds
}

// QueueQuantum computes a time quantum from the burst times of one worker
// queue as a weighted average of the top three samples.
func QueueQuantum(burstTimes []float64, bounds QuantumBounds) float64 {
	sorted := sortedDescending(burstTimes)

	var quantum float64

	switch len(sorted) {
	case 0:
		quantum = _DefaultQuantum

	case 1:
		quantum = sorted[0]

	case 2:
		quantum = 0.7*sorted[0] + 0.3*sorted[1]

	default:
		quantum = 0.5*sorted[0] + 0.3*sorted[1] + 0.2*sorted[2]
	}

	return bounds.clamp(quantum)
}

// SystemQuantum applies the strict (BT1-BT2)+BT3 formula over all burst times
// in the system. Kept separate from QueueQuantum since the call sites differ:
// this one feeds system-wide reporting.
func SystemQuantum(burstTimes []float64) float64 {
	sorted := sortedDescending(burstTimes)

	var quantum float64

	switch len(sorted) {
	case 0:
		quantum = _DefaultQuantum

	case 1:
		quantum = sorted[0]

	case 2:
		quantum = sorted[0] + sorted[1]

	default:
		quantum = (sorted[0] - sorted[1]) + sorted[2]
	}

	return _SystemQuantumBounds.clamp(quantum)
}

func sortedDescending(values []float64) []float64 {
	result := make([]float64, len(values))
	copy(result, values)

	sort.Sort(sort.Reverse(sort.Float64Slice(result)))

	return result
}
