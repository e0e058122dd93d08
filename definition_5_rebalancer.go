package scheduler

import (
	"math"

	log "github.com/sirupsen/logrus"
)

const (
	_BatchRebalancePassCap  = 3
	_MonitorThresholdFactor = 0.3
	_MonitorMigrationCap    = 2
)

// Rebalancer corrects load imbalance after placement in two modes: a bounded
// multi-pass batch correction and a cheap single-pass runtime monitor. The
// candidate preference differs between the two: the batch pass moves the
// longest tasks off hot workers to fix the macro load shape, the monitor moves
// the shortest so the win shows up quickly. That asymmetry is deliberate.
type Rebalancer struct {
	workers []*Worker

	population int

	stat *sessionStats
}

type loadThresholdTier struct {
	maxPopulation   int
	relativeFactor  float64
	minimumAbsolute float64
}

// Smaller populations get a larger relative threshold with a small absolute
// floor; larger populations get a smaller relative one so migrations remain
// bounded in absolute count. The first tier whose population bound is not
// exceeded wins.
var loadThresholdTiers = []loadThresholdTier{
	{maxPopulation: 100, relativeFactor: 0.2, minimumAbsolute: 1},
	{maxPopulation: 1000, relativeFactor: 0.15, minimumAbsolute: 2},
	{maxPopulation: 10_000, relativeFactor: 0.1, minimumAbsolute: 5},
	{maxPopulation: 40_000, relativeFactor: 0.05, minimumAbsolute: 10},
	{maxPopulation: math.MaxInt, relativeFactor: 0.02, minimumAbsolute: 20},
}

func batchLoadThreshold(population int, averageLoad float64) float64 {
	for _, tier := range loadThresholdTiers {
		if population <= tier.maxPopulation {
			return math.Max(tier.minimumAbsolute, averageLoad*tier.relativeFactor)
		}
	}

	last := loadThresholdTiers[len(loadThresholdTiers)-1]

	return math.Max(last.minimumAbsolute, averageLoad*last.relativeFactor)
}

// BatchRebalance runs dampened correction passes until a pass migrates
// nothing or the pass cap is reached. The cap prevents oscillation since each
// migration shifts the average the threshold is computed from. Returns the
// number of passes performed.
func (r *Rebalancer) BatchRebalance() int {
	var passes int

	for passes < _BatchRebalancePassCap {
		passes++

		if !r.rebalancePass() {
			break
		}
	}

	log.WithFields(
		log.Fields{
			"passes":  passes,
			"workers": len(r.workers),
		},
	).Info("batch rebalancing complete")

	return passes
}

func (r *Rebalancer) rebalancePass() bool {
	averageLoad := r.averageLoad()
	threshold := batchLoadThreshold(r.population, averageLoad)

	overloaded, underloaded := r.partitionByLoad(averageLoad, threshold)

	var changed bool

	for _, source := range overloaded {
		for _, destination := range underloaded {
			for float64(source.currentLoad) > averageLoad {
				ix := source.longestTaskIndex()
				if ix < 0 {
					break
				}

				r.migrate(source, destination, ix)
				r.stat.BatchMigrations.Inc(1)

				changed = true
			}
		}
	}

	return changed
}

// MonitorOnce is the periodic runtime pass: flat threshold, at most two
// migrations per call, one migration per overloaded worker. Returns the
// number of migrations performed.
func (r *Rebalancer) MonitorOnce() int {
	averageLoad := r.averageLoad()
	threshold := averageLoad * _MonitorThresholdFactor

	overloaded, underloaded := r.partitionByLoad(averageLoad, threshold)

	var migrations int

	for _, source := range overloaded {
		if migrations >= _MonitorMigrationCap {
			break
		}

		for _, destination := range underloaded {
			ix := source.shortestTaskIndex()
			if ix < 0 {
				break
			}

			r.migrate(source, destination, ix)
			r.stat.MonitorMigrations.Inc(1)

			migrations++

			break // one migration per overloaded worker, move to the next
		}
	}

	if migrations > 0 {
		log.WithFields(
			log.Fields{
				"migrations": migrations,
			},
		).Info("runtime migration complete")
	}

	return migrations
}

func (r *Rebalancer) averageLoad() float64 {
	loads := make([]float64, len(r.workers))

	for ix, worker := range r.workers {
		loads[ix] = float64(worker.currentLoad)
	}

	return mean(loads)
}

func (r *Rebalancer) partitionByLoad(averageLoad, threshold float64) (overloaded, underloaded []*Worker) {
	for _, worker := range r.workers {
		switch {
		case float64(worker.currentLoad) > averageLoad+threshold:
			overloaded = append(overloaded, worker)

		case float64(worker.currentLoad) < averageLoad-threshold:
			underloaded = append(underloaded, worker)
		}
	}

	return overloaded, underloaded
}

// migrate transfers exclusive ownership of one task: index based removal from
// the source queue, append to the destination, both loads and the task's
// owner updated together.
func (r *Rebalancer) migrate(source, destination *Worker, taskIndex int) {
	task := source.removeTaskAt(taskIndex)
	destination.assign(task)

	log.WithFields(
		log.Fields{
			"taskID":          task.ID,
			"fromWorkerID":    source.ID,
			"toWorkerID":      destination.ID,
			"sourceLoad":      source.currentLoad,
			"destinationLoad": destination.currentLoad,
		},
	).Debug("task migrated")
}
