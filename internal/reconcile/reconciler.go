package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/splitsync/splitsync/internal/metrics"
)

// State of the reconciler's subscription machine.
type State int

const (
	StateSubscribed State = iota
	StateRetrying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubscribed:
		return "subscribed"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrDegraded is reported through OnDegraded after retries are exhausted.
// It means the local view may be stale, not that anything crashed.
var ErrDegraded = errors.New("change feed unavailable, local data may be stale")

// Config tunes the reconciler's timing. Zero values pick the defaults.
type Config struct {
	// Window is the debounce window for change bursts.
	Window time.Duration
	// BaseBackoff is the first retry delay; it doubles per attempt.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubling.
	MaxBackoff time.Duration
	// MaxAttempts bounds consecutive failed subscription attempts before
	// the reconciler gives up and surfaces ErrDegraded.
	MaxAttempts int
}

func (c *Config) defaults() {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 250 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
}

// Reconciler keeps one client session's view convergent with the store.
// It subscribes to the given tables, coalesces notification bursts, and
// invokes Refetch once per burst. Subscription drops are retried with
// doubling, capped backoff; after MaxAttempts the machine parks in
// StateFailed and reports through OnDegraded.
type Reconciler struct {
	feed   Feed
	tables []string

	// Refetch replaces local state with the authoritative view.
	refetch func(ctx context.Context) error
	// onDegraded is called once when retries are exhausted. May be nil.
	onDegraded func(error)

	cfg Config

	mu    sync.Mutex
	state State
}

// New creates a reconciler for the given tables.
func New(feed Feed, tables []string, refetch func(ctx context.Context) error, onDegraded func(error), cfg Config) *Reconciler {
	cfg.defaults()
	return &Reconciler{
		feed:       feed,
		tables:     tables,
		refetch:    refetch,
		onDegraded: onDegraded,
		cfg:        cfg,
		state:      StateRetrying,
	}
}

// State returns the current subscription state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run blocks until ctx is cancelled or retries are exhausted. Cancelling ctx
// ends the session cleanly (returns ctx.Err()).
func (r *Reconciler) Run(ctx context.Context) error {
	backoff := r.cfg.BaseBackoff
	attempts := 0

	for {
		err := r.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// MaxAttempts bounds consecutive failures within one outage. A session
		// that reached StateSubscribed was healthy, so a later drop starts a
		// fresh retry budget instead of counting toward the lifetime total.
		if r.State() == StateSubscribed {
			attempts = 0
			backoff = r.cfg.BaseBackoff
		}

		attempts++
		metrics.ReconcileRetries.Inc()
		if attempts >= r.cfg.MaxAttempts {
			r.setState(StateFailed)
			degraded := fmt.Errorf("%w: %v", ErrDegraded, err)
			slog.Error("Reconciler giving up", "attempts", attempts, "error", err)
			if r.onDegraded != nil {
				r.onDegraded(degraded)
			}
			return degraded
		}

		r.setState(StateRetrying)
		slog.Warn("Subscription dropped, retrying",
			"attempt", attempts,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.cfg.MaxBackoff {
			backoff = r.cfg.MaxBackoff
		}
	}
}

// session subscribes to every table and pumps events into the debouncer
// until any subscription drops or ctx ends.
func (r *Reconciler) session(ctx context.Context) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	channels := make([]<-chan Event, 0, len(r.tables))
	for _, table := range r.tables {
		ch, err := r.feed.Subscribe(sessionCtx, table)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", table, err)
		}
		channels = append(channels, ch)
	}

	deb := NewDebouncer(r.cfg.Window, func() {
		metrics.ReconcileFlushes.Inc()
		if err := r.refetch(ctx); err != nil {
			// The next notification retriggers a fetch of current state, so
			// a failed refresh is logged, not fatal.
			slog.Warn("Reconciliation refetch failed", "error", err)
		}
	})
	defer deb.Stop()

	r.setState(StateSubscribed)

	// Fan the per-table channels into one. A closed source means the feed
	// dropped us; end the session so Run can resubscribe everything. The
	// pump goroutines exit through sessionCtx when the session returns.
	merged := make(chan Event)
	dropped := make(chan struct{}, len(channels))
	for _, ch := range channels {
		go func(ch <-chan Event) {
			for ev := range ch {
				select {
				case merged <- ev:
				case <-sessionCtx.Done():
					return
				}
			}
			dropped <- struct{}{}
		}(ch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-dropped:
			return errors.New("change feed closed")
		case ev := <-merged:
			slog.Debug("Change notification", "table", ev.Table)
			deb.Trigger()
		}
	}
}
