package poller

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 60
)

type Option func(*Poller)

// WithInterval sets the wait before each status read.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts sets the status read ceiling.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}
