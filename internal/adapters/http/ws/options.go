package ws

import (
	"time"

	"github.com/okian/cragrank/pkg/logger"
)

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithPingPeriod sets how often ping frames are sent. Clients that miss
// pongs for a little longer than this are disconnected.
func WithPingPeriod(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingPeriod = d
		}
	}
}

// WithSendBuffer sets the per-client outgoing message buffer depth.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// WithInitialState sets the lookup used to greet a new subscriber with the
// current rankings of its room.
func WithInitialState(fn InitialState) Option {
	return func(h *Hub) {
		h.initial = fn
	}
}
