// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults, Load(ctx) to layer
//   file and environment sources on top.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CooldownDays sets the rating amendment cooldown in days.
	CooldownDays int `koanf:"cooldown_days"`

	// QueueSize bounds the in-memory recalculation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recalculation workers.
	WorkerCount int `koanf:"worker_count"`

	// NotifyBuffer sets the per-subscriber notification channel buffer.
	NotifyBuffer int `koanf:"notify_buffer"`

	// MaxExpertsLimit caps GET /experts/{topic}?limit.
	MaxExpertsLimit int `koanf:"max_experts_limit"`

	// RecalcIntervalSeconds sets the periodic recalculation sweep
	// interval. Zero disables the sweep.
	RecalcIntervalSeconds int `koanf:"recalc_interval_seconds"`

	// AdminAccounts lists the accounts allowed to bypass the cooldown.
	AdminAccounts []string `koanf:"admin_accounts"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		CooldownDays:          182,
		QueueSize:             65_536,
		WorkerCount:           runtime.NumCPU() * 2,
		NotifyBuffer:          1024,
		MaxExpertsLimit:       100,
		RecalcIntervalSeconds: 60,
		AdminAccounts:         nil,
	}
}
