package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
)

// Scheduler owns the worker and task collections for one scheduling session
// and orchestrates the phases: static placement, then batch rebalancing, then
// periodic monitor cycles. Constructed per session, no cross-session state.
type Scheduler struct {
	workers     []*Worker
	workersByID map[int]*Worker
	tasks       []*Task

	placer     *Placer
	rebalancer *Rebalancer

	stat *sessionStats

	mu sync.Mutex
}

type ParamsNewScheduler struct {
	Workers []*Worker `valid:"required"`
	Tasks   []*Task   `valid:"required"`

	// Seed drives the weighted selection draws. Ignored when Rand is set.
	Seed int64
	Rand *rand.Rand
}

// NewScheduler fails fast on configuration errors: an empty worker or task
// set aborts the session before any scheduling is attempted.
func NewScheduler(params *ParamsNewScheduler) (*Scheduler, error) {
	if _, errValidation := govalidator.ValidateStruct(params); errValidation != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: "HybridRoundRobin",
				Caller:      "NewScheduler",
				Issue:       errValidation,
			}
	}

	workersByID := make(map[int]*Worker, len(params.Workers))

	for _, worker := range params.Workers {
		if worker == nil {
			return nil,
				goerrors.ErrValidation{
					Caller: "NewScheduler",
					Issue: goerrors.ErrNilInput{
						InputName: "Workers",
					},
				}
		}

		if _, exists := workersByID[worker.ID]; exists {
			return nil,
				goerrors.ErrValidation{
					Caller: "NewScheduler",
					Issue: fmt.Errorf(
						"duplicate worker ID %d",
						worker.ID,
					),
				}
		}

		workersByID[worker.ID] = worker
	}

	for _, task := range params.Tasks {
		if task == nil {
			return nil,
				goerrors.ErrValidation{
					Caller: "NewScheduler",
					Issue: goerrors.ErrNilInput{
						InputName: "Tasks",
					},
				}
		}
	}

	source := params.Rand
	if source == nil {
		source = rand.New(rand.NewSource(params.Seed))
	}

	stat := newSessionStats()

	result := Scheduler{
		workers:     params.Workers,
		workersByID: workersByID,
		tasks:       params.Tasks,

		stat: stat,
	}

	result.placer = newPlacer(
		&paramsNewPlacer{
			Workers:     params.Workers,
			WorkersByID: workersByID,
			Tasks:       params.Tasks,
			Rand:        source,
			Stat:        stat,
		},
	)

	result.rebalancer = &Rebalancer{
		workers:    params.Workers,
		population: len(params.Tasks),
		stat:       stat,
	}

	return &result,
		nil
}

// RunStaticPlacement executes phase one. It must complete before any
// rebalancing pass since the rebalancer assumes a stable total load.
func (s *Scheduler) RunStaticPlacement() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.placer.Place()
}

// RunBatchRebalance returns the number of correction passes performed.
func (s *Scheduler) RunBatchRebalance() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rebalancer.BatchRebalance()
}

// RunMonitorCycle returns the number of migrations performed. Intended to be
// called periodically by the surrounding execution system; stopping the calls
// is the only cancellation the core needs.
func (s *Scheduler) RunMonitorCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rebalancer.MonitorOnce()
}

// CurrentAssignment maps task ID to owning worker ID. Tasks skipped over an
// invalid worker reference are omitted.
func (s *Scheduler) CurrentAssignment() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int]int, len(s.tasks))

	for _, task := range s.tasks {
		if task.AssignedWorkerID == _Unassigned {
			continue
		}

		result[task.ID] = task.AssignedWorkerID
	}

	return result
}

type FairnessMetrics struct {
	LoadFairness        float64
	UtilizationFairness float64
	SystemQuantum       float64
}

func (s *Scheduler) FairnessMetrics() *FairnessMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	loads := make([]float64, len(s.workers))
	utilizations := make([]float64, len(s.workers))

	for ix, worker := range s.workers {
		loads[ix] = float64(worker.currentLoad)
		utilizations[ix] = worker.Utilization()
	}

	burstTimes := make([]float64, len(s.tasks))

	for ix, task := range s.tasks {
		burstTimes[ix] = task.EstimatedExecutionTime
	}

	return &FairnessMetrics{
		LoadFairness:        1 / (1 + stddev(loads)),
		UtilizationFairness: 1 / (1 + stddev(utilizations)),
		SystemQuantum:       SystemQuantum(burstTimes),
	}
}

// ReportRuntimeFeedback records per worker execution and idle time supplied
// by the execution substrate after tasks ran. Only UtilizationFairness
// depends on it, an assignment is produced without it.
func (s *Scheduler) ReportRuntimeFeedback(workerID int, totalExecutionTime, idleTime float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, exists := s.workersByID[workerID]
	if !exists {
		return goerrors.ErrInvalidInput{
			Caller:     "ReportRuntimeFeedback",
			InputName:  "workerID",
			InputValue: workerID,
			Issue: errors.New(
				"worker not part of the scheduling session",
			),
		}
	}

	worker.SetRuntimeFeedback(totalExecutionTime, idleTime)

	return nil
}

// PerWorkerQuantum computes the weighted average quantum of every worker
// queue, with bounds scaled to the task population.
func (s *Scheduler) PerWorkerQuantum() map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := BoundsForPopulation(len(s.tasks))

	result := make(map[int]float64, len(s.workers))

	for _, worker := range s.workers {
		burstTimes := make([]float64, len(worker.assignedTasks))

		for ix, task := range worker.assignedTasks {
			burstTimes[ix] = task.EstimatedExecutionTime
		}

		result[worker.ID] = QueueQuantum(burstTimes, bounds)
	}

	return result
}

// AssignmentCounts returns the cumulative placement count per worker.
// Migrations do not change it, it tracks initial placement only.
func (s *Scheduler) AssignmentCounts() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int]int, len(s.stat.assignmentCounts))

	for workerID, count := range s.stat.assignmentCounts {
		result[workerID] = count
	}

	return result
}

func (s *Scheduler) Diagnostics() *Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stat.snapshot()
}
