// Package scheduler runs queued solve jobs on a bounded worker pool.
package scheduler

import "time"

// Config defines the scheduler configuration.
type Config struct {
	// GlobalMax is the maximum number of concurrent workers across all strategies.
	GlobalMax int `yaml:"global_max" validate:"min=1"`
	// ByStrategy defines per-strategy concurrency limits.
	ByStrategy map[string]int `yaml:"by_strategy"`
	// PollInterval is how often the queue is checked.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		GlobalMax: 4,
		ByStrategy: map[string]int{
			"safe":    2,
			"optimal": 2,
		},
		PollInterval: time.Second,
	}
}

// GetStrategyLimit returns the concurrency limit for a strategy.
func (c *Config) GetStrategyLimit(name string) int {
	if limit, ok := c.ByStrategy[name]; ok {
		return limit
	}
	return 1
}
