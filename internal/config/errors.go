package config

import (
	"errors"
)

var (
	// ErrInvalidConfig wraps decode and validation failures.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the file or the environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrWatchConfig is returned when the config file cannot be watched.
	ErrWatchConfig = errors.New("watch config failed")
)
