package service

import "errors"

// Sentinel errors of the service.
var (
	ErrNotStarted = errors.New("service not started")
)
