package solver

import (
	"io"
	"log/slog"
)

// Defaults for planner tuning.
const (
	DefaultMaxIterations  = 1000
	DefaultBatchSize      = 3
	DefaultExactLimit     = 4
	DefaultClearRadius    = 3
	DefaultLookaheadWidth = 0

	// fewFlowers is the remaining-flower count at which the safe planner
	// stops insisting that a pick keeps the goal reachable.
	fewFlowers = 2
)

// Options tune a planner run.
type Options struct {
	MaxIterations  int
	BatchSize      int
	ExactLimit     int
	ClearRadius    int
	LookaheadWidth int
	Logger         *slog.Logger
}

// Option configures a planner run.
type Option func(*Options)

// DefaultOptions returns the standard tuning with a discarding logger.
func DefaultOptions() Options {
	return Options{
		MaxIterations:  DefaultMaxIterations,
		BatchSize:      DefaultBatchSize,
		ExactLimit:     DefaultExactLimit,
		ClearRadius:    DefaultClearRadius,
		LookaheadWidth: DefaultLookaheadWidth,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithMaxIterations caps the number of planning iterations.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithBatchSize sets how many flowers are gathered before a delivery is forced.
func WithBatchSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.BatchSize = n
		}
	}
}

// WithExactLimit sets the largest flower set ordered by full permutation.
// Zero turns exact ordering off.
func WithExactLimit(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.ExactLimit = n
		}
	}
}

// WithClearRadius sets how far along each ray obstacles are considered.
func WithClearRadius(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.ClearRadius = n
		}
	}
}

// WithLookaheadWidth bounds how many nearest flowers the lookahead scores.
// Zero scores every reachable flower.
func WithLookaheadWidth(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.LookaheadWidth = n
		}
	}
}

// WithLogger routes planner decisions to l at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithOptions applies every field of in through its own option, so each
// field accepts exactly what its With function accepts. A zero ExactLimit or
// LookaheadWidth is taken as given; other zero fields keep the current value.
func WithOptions(in Options) Option {
	return func(o *Options) {
		WithMaxIterations(in.MaxIterations)(o)
		WithBatchSize(in.BatchSize)(o)
		WithExactLimit(in.ExactLimit)(o)
		WithClearRadius(in.ClearRadius)(o)
		WithLookaheadWidth(in.LookaheadWidth)(o)
		WithLogger(in.Logger)(o)
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
