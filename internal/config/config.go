// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and CRAGRANK_* env vars.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WorkerCount sets the number of recompute workers, one per queue partition.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`

	// DedupeSize sets how many submission ids are remembered for replay detection.
	DedupeSize int `koanf:"dedupe_size" validate:"gt=0"`

	// CompetitionFile is an optional YAML competition definition loaded at startup.
	CompetitionFile string `koanf:"competition_file"`

	// WSPingIntervalMS is the websocket keepalive period.
	WSPingIntervalMS int `koanf:"ws_ping_interval_ms" validate:"gte=1000"`

	// WSSendBuffer bounds the queued messages per websocket client.
	WSSendBuffer int `koanf:"ws_send_buffer" validate:"gt=0"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       50_000,
		WSPingIntervalMS: 30_000,
		WSSendBuffer:     64,
	}
}

// WSPingInterval returns the websocket keepalive period.
func (c *Config) WSPingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalMS) * time.Millisecond
}
