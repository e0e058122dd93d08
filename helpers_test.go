package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWorkers(t *testing.T, capacities ...float64) []*Worker {
	t.Helper()

	result := make([]*Worker, len(capacities))

	for ix, capacity := range capacities {
		worker, errCr := NewWorker(
			&ParamsNewWorker{
				ID:       ix,
				Capacity: capacity,
			},
		)
		require.NoError(t, errCr)

		result[ix] = worker
	}

	return result
}

func newTestTasks(t *testing.T, lengths ...float64) []*Task {
	t.Helper()

	result := make([]*Task, len(lengths))

	for ix, length := range lengths {
		task, errCr := NewTask(
			&ParamsNewTask{
				ID:     ix,
				Length: length,
			},
		)
		require.NoError(t, errCr)

		result[ix] = task
	}

	return result
}

func workersByID(workers []*Worker) map[int]*Worker {
	result := make(map[int]*Worker, len(workers))

	for _, worker := range workers {
		result[worker.ID] = worker
	}

	return result
}

func newTestPlacer(workers []*Worker, tasks []*Task, source rand.Source) *Placer {
	return newPlacer(
		&paramsNewPlacer{
			Workers:     workers,
			WorkersByID: workersByID(workers),
			Tasks:       tasks,
			Rand:        rand.New(source),
			Stat:        newSessionStats(),
		},
	)
}

// stubSource makes the weighted draw fully predictable: a zero value always
// selects the first eligible worker.
type stubSource struct {
	value int64
}

func (s *stubSource) Int63() int64 {
	return s.value
}

func (s *stubSource) Seed(int64) {}

// requireExclusiveOwnership checks that every task is held by exactly the
// worker it points to and that no task was lost or duplicated.
func requireExclusiveOwnership(t *testing.T, workers []*Worker, tasks []*Task) {
	t.Helper()

	owners := make(map[int]int, len(tasks))
	totalLoad := 0

	for _, worker := range workers {
		require.Len(t,
			worker.assignedTasks,
			worker.CurrentLoad(),
		)

		totalLoad += worker.CurrentLoad()

		for _, task := range worker.assignedTasks {
			_, seen := owners[task.ID]
			require.False(t,
				seen,
				"task %d held by more than one worker", task.ID,
			)

			owners[task.ID] = worker.ID

			require.Equal(t,
				worker.ID,
				task.AssignedWorkerID,
			)
		}
	}

	require.Equal(t,
		len(tasks),
		totalLoad,
		"load conservation",
	)
}
