package scheduler

import (
	"time"

	"github.com/smallbiznis/settlement/internal/config"
)

// Config controls scheduler intervals and the settlement look-back window.
type Config struct {
	Enabled      bool
	RunInterval  time.Duration
	JobTimeout   time.Duration
	LookbackDays int
	EnabledJobs  []string
}

func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		RunInterval:  time.Hour,
		JobTimeout:   10 * time.Minute,
		LookbackDays: 1,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:     cfg.Scheduler.Enabled,
		RunInterval: cfg.Scheduler.RunInterval,
		JobTimeout:  cfg.Scheduler.JobTimeout,
		EnabledJobs: cfg.Scheduler.EnabledJobs,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = defaults.LookbackDays
	}
	return c
}
