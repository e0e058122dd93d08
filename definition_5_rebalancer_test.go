package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRebalancer(workers []*Worker, population int) *Rebalancer {
	return &Rebalancer{
		workers:    workers,
		population: population,
		stat:       newSessionStats(),
	}
}

func TestBatchLoadThreshold(t *testing.T) {
	tests := []struct {
		name        string
		population  int
		averageLoad float64
		expected    float64
	}{
		{"1. small population floor", 9, 3, 1},
		{"2. small population relative", 100, 10, 2},
		{"3. medium population", 1000, 100, 15},
		{"4. large population", 10_000, 100, 10},
		{"5. very large population", 40_000, 1000, 50},
		{"6. massive population", 100_000, 1000, 20},
	}

	for _, test := range tests {
		t.Run(
			test.name,
			func(t *testing.T) {
				require.InDelta(t,
					test.expected,
					batchLoadThreshold(test.population, test.averageLoad),
					1e-9,
				)
			},
		)
	}
}

func TestBatchRebalanceEvensSkewedLoad(t *testing.T) {
	workers := newTestWorkers(t, 3000, 1000, 1000)
	tasks := newTestTasks(
		t,
		150_000, 150_000, 150_000, 150_000, 150_000,
		150_000, 150_000, 150_000, 150_000,
	)

	// worst case placement: everything on one worker
	for _, task := range tasks {
		workers[0].assign(task)
	}

	rebalancer := newTestRebalancer(workers, len(tasks))

	passes := rebalancer.BatchRebalance()

	require.LessOrEqual(t, passes, _BatchRebalancePassCap)
	requireExclusiveOwnership(t, workers, tasks)

	for _, worker := range workers {
		require.Equal(t,
			3,
			worker.CurrentLoad(),
			"worker %d", worker.ID,
		)
	}
}

func TestBatchRebalancePrefersLongestTasks(t *testing.T) {
	workers := newTestWorkers(t, 1000, 1000)
	tasks := newTestTasks(t, 300_000, 50_000, 100_000)

	for _, task := range tasks {
		workers[0].assign(task)
	}

	rebalancer := newTestRebalancer(workers, len(tasks))
	rebalancer.BatchRebalance()

	requireExclusiveOwnership(t, workers, tasks)

	// average load 1.5, threshold 1: the source drains to a load of 1 by
	// moving its longest tasks first
	require.Equal(t, 1, workers[0].CurrentLoad())
	require.Equal(t, 2, workers[1].CurrentLoad())

	require.Equal(t,
		[]int{0, 2},
		workers[1].AssignedTaskIDs(),
		"longest first, then next longest",
	)
	require.Equal(t,
		[]int{1},
		workers[0].AssignedTaskIDs(),
		"shortest task stays",
	)
}

func TestBatchRebalanceStopsEarlyWhenBalanced(t *testing.T) {
	workers := newTestWorkers(t, 1000, 1000)
	tasks := newTestTasks(t, 100_000, 110_000)

	workers[0].assign(tasks[0])
	workers[1].assign(tasks[1])

	rebalancer := newTestRebalancer(workers, len(tasks))

	require.Equal(t,
		1,
		rebalancer.BatchRebalance(),
		"a pass with no migrations ends the loop",
	)
	require.Zero(t, rebalancer.stat.BatchMigrations.Count())
}

func TestMonitorMigrationCap(t *testing.T) {
	workers := newTestWorkers(t, 1000, 1000, 1000, 1000, 1000, 1000)
	tasks := newTestTasks(
		t,
		100_000, 100_000, 100_000, 100_000, 100_000, 100_000,
		100_000, 100_000, 100_000, 100_000, 100_000, 100_000,
		100_000, 100_000, 100_000, 100_000, 100_000, 100_000,
	)

	// three heavily loaded workers, three idle ones
	for ix, task := range tasks {
		workers[ix/6].assign(task)
	}

	rebalancer := newTestRebalancer(workers, len(tasks))

	require.Equal(t,
		_MonitorMigrationCap,
		rebalancer.MonitorOnce(),
		"hard ceiling regardless of overloaded worker count",
	)
	requireExclusiveOwnership(t, workers, tasks)
	require.EqualValues(t, 2, rebalancer.stat.MonitorMigrations.Count())
}

func TestMonitorPrefersShortestTask(t *testing.T) {
	workers := newTestWorkers(t, 1000, 1000)
	tasks := newTestTasks(t, 300_000, 50_000, 100_000)

	for _, task := range tasks {
		workers[0].assign(task)
	}

	rebalancer := newTestRebalancer(workers, len(tasks))

	require.Equal(t, 1, rebalancer.MonitorOnce())
	requireExclusiveOwnership(t, workers, tasks)

	require.Equal(t,
		[]int{1},
		workers[1].AssignedTaskIDs(),
		"shortest task relocates",
	)
}

func TestMonitorNoMigrationWhenBalanced(t *testing.T) {
	workers := newTestWorkers(t, 1000, 1000)
	tasks := newTestTasks(t, 100_000, 110_000)

	workers[0].assign(tasks[0])
	workers[1].assign(tasks[1])

	rebalancer := newTestRebalancer(workers, len(tasks))

	require.Zero(t, rebalancer.MonitorOnce())
}
