package notifier

import (
	"sync"
	"time"

	"github.com/block-integration-api/tutorial-webchat/models"
	"go.uber.org/zap"
)

const (
	DefaultTTL           = 15 * time.Minute
	DefaultSweepInterval = time.Minute
)

// channel is the per correlation id state. A live sink and a non-empty
// pending queue never coexist once the lock is released.
type channel struct {
	mu      sync.Mutex
	sink    Sink
	gen     uint64 // bumped on every subscribe
	pending []models.Event
	closed  bool
	dead    bool // removed from the registry
	touched time.Time
}

// Registry owns every notification channel in the process.
type Registry struct {
	mu         sync.Mutex
	channels   map[string]*channel
	tombstones map[string]time.Time

	ttl           time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time

	cancel func()
	done   chan struct{}
}

type Option func(*Registry)

// WithTTL sets how long a sinkless channel or a tombstone survives.
func WithTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.sweepInterval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		channels:      make(map[string]*channel),
		tombstones:    make(map[string]time.Time),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish delivers ev to the live sink for id, or buffers it when nobody is
// subscribed. A KindClose event marks the channel closed; once it reaches a
// sink the channel is torn down. Events for torn down ids are dropped.
func (r *Registry) Publish(id string, ev models.Event) {
	for {
		ch := r.acquire(id)
		if ch == nil {
			r.logger.Debug("Dropping event for finished channel",
				zap.String("correlation_id", id),
				zap.Stringer("kind", ev.Kind),
			)
			return
		}
		ch.mu.Lock()
		if ch.dead {
			ch.mu.Unlock()
			continue
		}
		r.publishLocked(id, ch, ev)
		ch.mu.Unlock()
		return
	}
}

// Close publishes the close sentinel for id.
func (r *Registry) Close(id string) {
	r.Publish(id, models.CloseEvent())
}

func (r *Registry) publishLocked(id string, ch *channel, ev models.Event) {
	ch.touched = r.now()
	if ch.closed {
		r.logger.Debug("Dropping event after close",
			zap.String("correlation_id", id),
			zap.Stringer("kind", ev.Kind),
		)
		return
	}

	if ev.Kind == models.KindClose {
		ch.closed = true
		if ch.sink == nil {
			ch.pending = append(ch.pending, ev)
			return
		}
		r.deliver(id, ch, ev)
		r.teardownLocked(id, ch)
		return
	}

	if ch.sink == nil {
		ch.pending = append(ch.pending, ev)
		return
	}
	r.deliver(id, ch, ev)
}

// Subscribe attaches sink to id, replacing any earlier subscriber. Buffered
// events are flushed to it in order before it becomes the live path. If the
// channel already closed, the sink also receives the close sentinel and the
// channel is torn down. The returned function detaches this sink only.
func (r *Registry) Subscribe(id string, sink Sink) (unsubscribe func()) {
	for {
		ch := r.acquire(id)
		if ch == nil {
			if err := sink.Deliver(models.CloseEvent()); err != nil {
				r.logger.Debug("Close delivery to late subscriber failed", zap.String("correlation_id", id), zap.Error(err))
			}
			return func() {}
		}
		ch.mu.Lock()
		if ch.dead {
			ch.mu.Unlock()
			continue
		}

		if ch.sink != nil {
			r.logger.Info("Replacing subscriber", zap.String("correlation_id", id))
		}
		ch.gen++
		gen := ch.gen
		ch.sink = sink
		ch.touched = r.now()

		pending := ch.pending
		ch.pending = nil
		sawClose := false
		for _, ev := range pending {
			if ch.sink == nil {
				break
			}
			sawClose = sawClose || ev.Kind == models.KindClose
			r.deliver(id, ch, ev)
		}

		if ch.closed {
			if !sawClose && ch.sink != nil {
				r.deliver(id, ch, models.CloseEvent())
			}
			r.teardownLocked(id, ch)
		}
		ch.mu.Unlock()

		return func() { r.unsubscribe(id, ch, gen) }
	}
}

func (r *Registry) unsubscribe(id string, ch *channel, gen uint64) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.dead || ch.gen != gen || ch.sink == nil {
		return
	}
	ch.sink = nil
	ch.touched = r.now()
	if ch.closed {
		r.teardownLocked(id, ch)
	}
}

// deliver hands ev to the live sink. A failing sink is detached and the
// channel is marked closed so nothing else is sent into it.
func (r *Registry) deliver(id string, ch *channel, ev models.Event) {
	if err := ch.sink.Deliver(ev); err != nil {
		r.logger.Warn("Event delivery failed, closing channel",
			zap.String("correlation_id", id),
			zap.Stringer("kind", ev.Kind),
			zap.Error(err),
		)
		ch.sink = nil
		ch.closed = true
	}
}

// acquire returns the live channel for id, creating it when absent. It
// returns nil when id was already torn down.
func (r *Registry) acquire(id string) *channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, gone := r.tombstones[id]; gone {
		return nil
	}
	ch, ok := r.channels[id]
	if !ok {
		ch = &channel{touched: r.now()}
		r.channels[id] = ch
	}
	return ch
}

// teardownLocked removes ch and leaves a tombstone. ch.mu must be held.
func (r *Registry) teardownLocked(id string, ch *channel) {
	ch.dead = true
	ch.sink = nil
	ch.pending = nil

	r.mu.Lock()
	if r.channels[id] == ch {
		delete(r.channels, id)
	}
	r.tombstones[id] = r.now()
	r.mu.Unlock()
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Channels   int `json:"channels"`
	Subscribed int `json:"subscribed"`
	Buffered   int `json:"buffered"`
	Tombstones int `json:"tombstones"`
}

func (s Stats) AsMap() map[string]int {
	return map[string]int{
		"channels":   s.Channels,
		"subscribed": s.Subscribed,
		"buffered":   s.Buffered,
		"tombstones": s.Tombstones,
	}
}

func (r *Registry) Stats() Stats {
	r.mu.Lock()
	chans := make([]*channel, 0, len(r.channels))
	for _, ch := range r.channels {
		chans = append(chans, ch)
	}
	stats := Stats{Tombstones: len(r.tombstones)}
	r.mu.Unlock()

	for _, ch := range chans {
		ch.mu.Lock()
		if !ch.dead {
			stats.Channels++
			stats.Buffered += len(ch.pending)
			if ch.sink != nil {
				stats.Subscribed++
			}
		}
		ch.mu.Unlock()
	}
	return stats
}
