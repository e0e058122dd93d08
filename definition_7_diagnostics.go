package scheduler

import (
	"github.com/rcrowley/go-metrics"
)

// sessionStats carries the per session diagnostic counters shared by the
// placer and the rebalancer. Each session gets its own registry.
type sessionStats struct {
	Placements              metrics.Counter
	ForcedPlacements        metrics.Counter
	RoundRobinFallbacks     metrics.Counter
	InvalidWorkerReferences metrics.Counter
	BatchMigrations         metrics.Counter
	MonitorMigrations       metrics.Counter

	assignmentCounts map[int]int

	registry metrics.Registry
}

func newSessionStats() *sessionStats {
	registry := metrics.NewRegistry()

	return &sessionStats{
		Placements:              metrics.GetOrRegisterCounter("placer.placements", registry),
		ForcedPlacements:        metrics.GetOrRegisterCounter("placer.forced_placements", registry),
		RoundRobinFallbacks:     metrics.GetOrRegisterCounter("placer.round_robin_fallbacks", registry),
		InvalidWorkerReferences: metrics.GetOrRegisterCounter("placer.invalid_worker_references", registry),
		BatchMigrations:         metrics.GetOrRegisterCounter("rebalancer.batch_migrations", registry),
		MonitorMigrations:       metrics.GetOrRegisterCounter("rebalancer.monitor_migrations", registry),

		assignmentCounts: map[int]int{},

		registry: registry,
	}
}

// Diagnostics is a point in time snapshot of the session counters.
type Diagnostics struct {
	Placements              int64
	ForcedPlacements        int64
	RoundRobinFallbacks     int64
	InvalidWorkerReferences int64
	BatchMigrations         int64
	MonitorMigrations       int64
}

func (stat *sessionStats) snapshot() *Diagnostics {
	return &Diagnostics{
		Placements:              stat.Placements.Count(),
		ForcedPlacements:        stat.ForcedPlacements.Count(),
		RoundRobinFallbacks:     stat.RoundRobinFallbacks.Count(),
		InvalidWorkerReferences: stat.InvalidWorkerReferences.Count(),
		BatchMigrations:         stat.BatchMigrations.Count(),
		MonitorMigrations:       stat.MonitorMigrations.Count(),
	}
}
