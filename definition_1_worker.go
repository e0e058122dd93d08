package scheduler

import (
	goerrors "github.com/TudorHulban/go-errors"
)

const (
	_IdleWeightBonus      = 1.2
	_OverloadWeightFactor = 1.5
	_OverloadLoadBoundary = 10
)

// Worker holds the scheduling state of one unit of processing capacity.
// Load and queue are mutated only through assign and removeTaskAt so that
// currentLoad always equals the queue length.
type Worker struct {
	assignedTasks []*Task

	ID       int
	Capacity float64

	currentLoad int
	weight      float64

	totalExecutionTime float64
	idleTime           float64
}

type ParamsNewWorker struct {
	ID       int
	Capacity float64
}

func (params *ParamsNewWorker) IsValid() error {
	if params.ID < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewWorker",
			Issue: goerrors.ErrNegativeInput{
				InputName: "ID",
			},
		}
	}

	if params.Capacity <= 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewWorker",
			Issue: goerrors.ErrInvalidInput{
				InputName: "Capacity",
			},
		}
	}

	return nil
}

func NewWorker(params *ParamsNewWorker) (*Worker, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	return &Worker{
			ID:       params.ID,
			Capacity: params.Capacity,

			weight: params.Capacity,
		},
		nil
}

// computeWeight ranks a worker for new assignments, evaluated top-down:
// idle workers get a bonus, workers past the load boundary a penalty.
func computeWeight(capacity float64, currentLoad int) float64 {
	loadFactor := 1 + float64(currentLoad)

	switch {
	case currentLoad == 0:
		return capacity * _IdleWeightBonus

	case currentLoad > _OverloadLoadBoundary:
		return capacity / (loadFactor * _OverloadWeightFactor)

	default:
		return capacity / loadFactor
	}
}

// RefreshWeight recomputes and persists the weight. Callers must refresh
// before every selection decision since the load mutates between calls.
func (w *Worker) RefreshWeight() float64 {
	w.weight = computeWeight(w.Capacity, w.currentLoad)

	return w.weight
}

func (w *Worker) Weight() float64 {
	return w.weight
}

func (w *Worker) CurrentLoad() int {
	return w.currentLoad
}

func (w *Worker) AssignedTaskIDs() []int {
	result := make([]int, len(w.assignedTasks))

	for ix, task := range w.assignedTasks {
		result[ix] = task.ID
	}

	return result
}

// SetRuntimeFeedback records execution and idle time reported by the
// surrounding execution system after tasks actually ran.
func (w *Worker) SetRuntimeFeedback(totalExecutionTime, idleTime float64) {
	w.totalExecutionTime = totalExecutionTime
	w.idleTime = idleTime
}

func (w *Worker) Utilization() float64 {
	total := w.totalExecutionTime + w.idleTime
	if total == 0 {
		return 0
	}

	return w.totalExecutionTime / total
}

func (w *Worker) assign(task *Task) {
	task.AssignedWorkerID = w.ID

	w.assignedTasks = append(w.assignedTasks, task)
	w.currentLoad++
}

func (w *Worker) removeTaskAt(ix int) *Task {
	task := w.assignedTasks[ix]

	w.assignedTasks = append(w.assignedTasks[:ix], w.assignedTasks[ix+1:]...)
	w.currentLoad--

	return task
}

func (w *Worker) longestTaskIndex() int {
	if len(w.assignedTasks) == 0 {
		return -1
	}

	result := 0

	for ix, task := range w.assignedTasks {
		if task.EstimatedExecutionTime > w.assignedTasks[result].EstimatedExecutionTime {
			result = ix
		}
	}

	return result
}

func (w *Worker) shortestTaskIndex() int {
	if len(w.assignedTasks) == 0 {
		return -1
	}

	result := 0

	for ix, task := range w.assignedTasks {
		if task.EstimatedExecutionTime < w.assignedTasks[result].EstimatedExecutionTime {
			result = ix
		}
	}

	return result
}
