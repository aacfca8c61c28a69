package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Start launches the eviction loop. Calling it twice is a no-op.
func (r *Registry) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)

	r.logger.Info("Notifier janitor started",
		zap.Duration("ttl", r.ttl),
		zap.Duration("interval", r.sweepInterval),
	)
}

// Stop signals the eviction loop to exit and waits for it to finish.
func (r *Registry) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.logger.Info("Notifier janitor stopped")
}

func (r *Registry) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts channels that have had no subscriber for longer than the TTL
// and forgets tombstones older than the TTL. It returns the number of
// channels evicted.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	ids := make([]string, 0, len(r.channels))
	chans := make([]*channel, 0, len(r.channels))
	for id, ch := range r.channels {
		ids = append(ids, id)
		chans = append(chans, ch)
	}
	for id, at := range r.tombstones {
		if now.Sub(at) > r.ttl {
			delete(r.tombstones, id)
		}
	}
	r.mu.Unlock()

	evicted := 0
	for i, ch := range chans {
		ch.mu.Lock()
		if !ch.dead && ch.sink == nil && now.Sub(ch.touched) > r.ttl {
			r.logger.Info("Evicting idle channel",
				zap.String("correlation_id", ids[i]),
				zap.Int("buffered", len(ch.pending)),
				zap.Bool("closed", ch.closed),
			)
			r.teardownLocked(ids[i], ch)
			evicted++
		}
		ch.mu.Unlock()
	}
	return evicted
}
