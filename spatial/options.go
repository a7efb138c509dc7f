package spatial

import (
	"github.com/TheBitDrifter/locus/internal/jobs"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// defaultMinChunk is the smallest number of items a build hands to one
// worker. Smaller builds use fewer workers.
const defaultMinChunk = 512

type options struct {
	pool      *jobs.Pool
	workers   int
	minChunk  int
	logger    logrus.FieldLogger
	limit     rate.Limit
	burst     int
	path      MortonPath
	rateLimit bool
}

// Option configures a Tree.
type Option func(*options)

// WithPool shares an existing worker pool between trees. Builds of trees on
// the same pool compete for its workers.
func WithPool(pool *jobs.Pool) Option {
	return func(o *options) {
		o.pool = pool
	}
}

// WithWorkers sizes the tree's private pool. Ignored when WithPool is given.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithMinChunk sets the smallest per-worker share of a build.
func WithMinChunk(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minChunk = n
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRebuildLimit caps how often Run may start a build, on top of the
// one-build-at-a-time rule.
func WithRebuildLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limit = limit
		o.burst = burst
		o.rateLimit = true
	}
}

// WithMortonPath forces a Morton batch encoder.
func WithMortonPath(path MortonPath) Option {
	return func(o *options) {
		o.path = path
	}
}

func defaultOptions() options {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return options{
		minChunk: defaultMinChunk,
		logger:   logger,
		path:     MortonAuto,
	}
}
