package spatial

import (
	"sync/atomic"
	"time"
)

// Stats is a snapshot of a tree's build counters.
type Stats struct {
	BuildsStarted     uint64
	BuildsCompleted   uint64
	RunsSkipped       uint64
	Entities          int
	LastBuildDuration time.Duration
	// LastBuildSimTime is the simulated time passed to Tick while the last
	// build was in flight.
	LastBuildSimTime time.Duration
}

type stats struct {
	started       atomic.Uint64
	completed     atomic.Uint64
	skipped       atomic.Uint64
	entities      atomic.Int64
	lastBuildNano atomic.Int64
	lastSimNano   atomic.Int64
}

func (s *stats) snapshot() Stats {
	return Stats{
		BuildsStarted:     s.started.Load(),
		BuildsCompleted:   s.completed.Load(),
		RunsSkipped:       s.skipped.Load(),
		Entities:          int(s.entities.Load()),
		LastBuildDuration: time.Duration(s.lastBuildNano.Load()),
		LastBuildSimTime:  time.Duration(s.lastSimNano.Load()),
	}
}
