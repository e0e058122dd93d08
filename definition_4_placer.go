package scheduler

import (
	"math"
	"math/rand"
	"sort"

	log "github.com/sirupsen/logrus"
)

const _BatchDivisor = 10

// Placer performs the static placement phase: priority ordered, batched,
// weighted random assignment of tasks to workers.
type Placer struct {
	workers     []*Worker
	workersByID map[int]*Worker
	tasks       []*Task

	rand   *rand.Rand
	cursor int

	stat *sessionStats
}

type paramsNewPlacer struct {
	Workers     []*Worker
	WorkersByID map[int]*Worker
	Tasks       []*Task
	Rand        *rand.Rand
	Stat        *sessionStats
}

func newPlacer(params *paramsNewPlacer) *Placer {
	return &Placer{
		workers:     params.Workers,
		workersByID: params.WorkersByID,
		tasks:       params.Tasks,

		rand: params.Rand,
		stat: params.Stat,
	}
}

// placementBatches orders tasks by priority ascending, arrival order preserved
// on ties, then splits them into batches of count/10 with the remainder folded
// into the final batch. Each batch is ordered longest task first since long
// tasks are harder to redistribute later.
func placementBatches(tasks []*Task) [][]*Task {
	ordered := make([]*Task, len(tasks))
	copy(ordered, tasks)

	sort.SliceStable(
		ordered,
		func(i, j int) bool {
			return ordered[i].Priority < ordered[j].Priority
		},
	)

	batchSize := max(1, len(ordered)/_BatchDivisor)

	var result [][]*Task

	for start := 0; start < len(ordered); start += batchSize {
		end := start + batchSize
		if len(ordered)-end < batchSize {
			end = len(ordered)
		}

		batch := ordered[start:end]

		sort.SliceStable(
			batch,
			func(i, j int) bool {
				return batch[i].Length > batch[j].Length
			},
		)

		result = append(result, batch)

		if end == len(ordered) {
			break
		}
	}

	return result
}

func (placer *Placer) Place() {
	batches := placementBatches(placer.tasks)

	for _, batch := range batches {
		placer.placeBatch(batch)
	}

	log.WithFields(
		log.Fields{
			"tasks":   len(placer.tasks),
			"batches": len(batches),
			"workers": len(placer.workers),
		},
	).Info("static placement complete")
}

func (placer *Placer) placeBatch(batch []*Task) {
	for _, task := range batch {
		for _, worker := range placer.workers {
			worker.RefreshWeight()
		}

		placer.assign(task, placer.selectWorker(task))
	}
}

// selectWorker draws a worker by weight from the eligible set. When no worker
// can fit the task estimate, placement is forced onto the highest capacity
// worker so a target always exists.
func (placer *Placer) selectWorker(task *Task) int {
	eligible := placer.eligibleWorkers(task)

	if len(eligible) == 0 {
		placer.stat.ForcedPlacements.Inc(1)

		return placer.highestCapacityWorker().ID
	}

	var totalWeight float64

	for _, worker := range eligible {
		totalWeight += worker.Weight()
	}

	if totalWeight > 0 && !math.IsInf(totalWeight, 1) {
		draw := placer.rand.Float64() * totalWeight

		var cumulative float64

		for _, worker := range eligible {
			cumulative += worker.Weight()

			if cumulative >= draw {
				return worker.ID
			}
		}
	}

	// Numeric edge case, recovered locally via the advancing cursor.
	placer.stat.RoundRobinFallbacks.Inc(1)

	selected := eligible[placer.cursor%len(eligible)]
	placer.cursor++

	return selected.ID
}

func (placer *Placer) eligibleWorkers(task *Task) []*Worker {
	var result []*Worker

	for _, worker := range placer.workers {
		if worker.Capacity >= task.EstimatedExecutionTime {
			result = append(result, worker)
		}
	}

	return result
}

func (placer *Placer) highestCapacityWorker() *Worker {
	result := placer.workers[0]

	for _, worker := range placer.workers[1:] {
		if worker.Capacity > result.Capacity {
			result = worker
		}
	}

	return result
}

// assign rejects worker references outside the known set instead of
// corrupting load counters. The task stays unassigned for this round.
func (placer *Placer) assign(task *Task, workerID int) {
	worker, exists := placer.workersByID[workerID]
	if !exists {
		placer.stat.InvalidWorkerReferences.Inc(1)

		log.WithFields(
			log.Fields{
				"taskID":   task.ID,
				"workerID": workerID,
			},
		).Warn("assignment rejected, worker not part of the scheduling session")

		return
	}

	worker.assign(task)
	worker.RefreshWeight()

	placer.stat.Placements.Inc(1)
	placer.stat.assignmentCounts[workerID]++

	log.WithFields(
		log.Fields{
			"taskID":   task.ID,
			"priority": task.Priority,
			"length":   task.Length,
			"workerID": worker.ID,
			"load":     worker.CurrentLoad(),
		},
	).Debug("task assigned")
}
