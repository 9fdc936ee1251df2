package aggregate

import (
	"github.com/feichai0017/hasty/pkg/logger"
)

// Progress is reported after each commodity's aggregation completes.
type Progress struct {
	Completed int
	Total     int
	Commodity string
}

// Fraction returns completed/total in 0..1.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

// ProgressFunc receives progress notifications. Calls are serialized.
type ProgressFunc func(Progress)

// Option configures Build.
type Option func(*config)

type config struct {
	concurrency int
	progress    ProgressFunc
	logger      logger.Logger
}

// WithConcurrency aggregates up to n commodities at once. Values below 1
// mean sequential.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithProgress sets the progress sink.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithLogger sets the logger used for per-commodity diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		concurrency: 1,
		progress:    func(Progress) {},
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	if cfg.progress == nil {
		cfg.progress = func(Progress) {}
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNop()
	}
	return cfg
}
