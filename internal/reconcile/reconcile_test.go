package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/splitsync/splitsync/internal/models"
)

func TestDebouncerCoalesces(t *testing.T) {
	var flushes atomic.Int32
	deb := NewDebouncer(50*time.Millisecond, func() { flushes.Add(1) })
	defer deb.Stop()

	// A burst of triggers inside one window must flush once.
	for i := 0; i < 10; i++ {
		deb.Trigger()
	}
	time.Sleep(150 * time.Millisecond)
	if got := flushes.Load(); got != 1 {
		t.Errorf("flushes after burst = %d, want 1", got)
	}

	// A later trigger opens a new window.
	deb.Trigger()
	time.Sleep(150 * time.Millisecond)
	if got := flushes.Load(); got != 2 {
		t.Errorf("flushes after second window = %d, want 2", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	var flushes atomic.Int32
	deb := NewDebouncer(50*time.Millisecond, func() { flushes.Add(1) })

	deb.Trigger()
	deb.Stop()
	time.Sleep(120 * time.Millisecond)
	if got := flushes.Load(); got != 0 {
		t.Errorf("flushes after Stop = %d, want 0", got)
	}
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "transactions")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	bus.Publish("transactions")
	bus.Publish("debt_edges") // different table, not delivered

	select {
	case ev := <-ch:
		if ev.Table != "transactions" {
			t.Errorf("event table = %s, want transactions", ev.Table)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-ch:
		t.Errorf("unexpected extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReconcilerRefetchesOnBurst(t *testing.T) {
	bus := NewBus()
	var fetches atomic.Int32

	r := New(bus, []string{"transactions", "debt_edges"},
		func(ctx context.Context) error {
			fetches.Add(1)
			return nil
		},
		nil,
		Config{Window: 30 * time.Millisecond},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitForState(t, r, StateSubscribed)

	// One write touches both tables and many edge rows: a burst.
	for i := 0; i < 5; i++ {
		bus.Publish("transactions")
		bus.Publish("debt_edges")
	}
	time.Sleep(120 * time.Millisecond)
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches after burst = %d, want 1", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() after cancel = %v, want context.Canceled", err)
	}
}

// failingFeed always refuses subscriptions.
type failingFeed struct {
	attempts atomic.Int32
}

func (f *failingFeed) Subscribe(ctx context.Context, table string) (<-chan Event, error) {
	f.attempts.Add(1)
	return nil, errors.New("connection refused")
}

func TestReconcilerGivesUpAfterMaxAttempts(t *testing.T) {
	feed := &failingFeed{}
	var degraded atomic.Int32

	r := New(feed, []string{"transactions"},
		func(ctx context.Context) error { return nil },
		func(err error) {
			if !errors.Is(err, ErrDegraded) {
				t.Errorf("degraded error = %v, want ErrDegraded", err)
			}
			degraded.Add(1)
		},
		Config{
			BaseBackoff: time.Millisecond,
			MaxBackoff:  4 * time.Millisecond,
			MaxAttempts: 3,
		},
	)

	err := r.Run(context.Background())
	if !errors.Is(err, ErrDegraded) {
		t.Fatalf("Run() = %v, want ErrDegraded", err)
	}
	if r.State() != StateFailed {
		t.Errorf("state = %v, want failed", r.State())
	}
	if got := degraded.Load(); got != 1 {
		t.Errorf("degraded callbacks = %d, want 1", got)
	}
	if got := feed.attempts.Load(); got != 3 {
		t.Errorf("subscribe attempts = %d, want 3", got)
	}
}

// flakyFeed fails the first n subscription rounds, then behaves.
type flakyFeed struct {
	mu       sync.Mutex
	failures int
	bus      *Bus
}

func (f *flakyFeed) Subscribe(ctx context.Context, table string) (<-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("temporarily unavailable")
	}
	return f.bus.Subscribe(ctx, table)
}

func TestReconcilerRecoversWithBackoff(t *testing.T) {
	feed := &flakyFeed{failures: 2, bus: NewBus()}

	r := New(feed, []string{"transactions"},
		func(ctx context.Context) error { return nil },
		nil,
		Config{
			Window:      10 * time.Millisecond,
			BaseBackoff: time.Millisecond,
			MaxBackoff:  4 * time.Millisecond,
			MaxAttempts: 5,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	waitForState(t, r, StateSubscribed)
	cancel()
	<-done
}

// droppingFeed accepts every subscription, then closes the channel shortly
// after, like a flaky connection that keeps coming back.
type droppingFeed struct {
	subscribes atomic.Int32
}

func (f *droppingFeed) Subscribe(ctx context.Context, table string) (<-chan Event, error) {
	f.subscribes.Add(1)
	ch := make(chan Event)
	go func() {
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
		}
		close(ch)
	}()
	return ch, nil
}

// A healthy subscription that later drops must start a fresh retry budget:
// only consecutive failures within one outage count toward MaxAttempts, so a
// long-lived session surviving many drops never parks in StateFailed.
func TestReconcilerDropsDoNotAccumulate(t *testing.T) {
	feed := &droppingFeed{}

	r := New(feed, []string{"transactions"},
		func(ctx context.Context) error { return nil },
		nil,
		Config{
			BaseBackoff: time.Millisecond,
			MaxBackoff:  2 * time.Millisecond,
			MaxAttempts: 3,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Far more successful-then-dropped sessions than MaxAttempts.
	deadline := time.Now().Add(2 * time.Second)
	for feed.subscribes.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := feed.subscribes.Load(); got < 10 {
		t.Fatalf("only %d subscriptions before deadline, want at least 10", got)
	}
	if r.State() == StateFailed {
		t.Fatal("reconciler parked in failed state despite healthy resubscriptions")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() after cancel = %v, want context.Canceled", err)
	}
}

func waitForState(t *testing.T, r *Reconciler, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached %v (now %v)", want, r.State())
}

func TestCacheAuthoritativeWins(t *testing.T) {
	cache := NewCache()

	// Optimistic local create.
	cache.ApplyLocal(&models.Transaction{ID: "t1", Date: "2025-06-01", Amount: 100})
	if _, ok := cache.Get("t1"); !ok {
		t.Fatal("optimistic transaction missing from cache")
	}

	// Optimistic soft delete.
	cache.ApplyLocal(&models.Transaction{ID: "t1", Date: "2025-06-01", Amount: 100, DeletedAt: 1750000000})
	if live := cache.List(); len(live) != 0 {
		t.Errorf("List() after optimistic delete = %d transactions, want 0", len(live))
	}

	// Authoritative fetch disagrees (the delete never committed) and wins.
	cache.ReplaceAll([]*models.Transaction{
		{ID: "t1", Date: "2025-06-01", Amount: 100},
		{ID: "t2", Date: "2025-06-05", Amount: 40},
	})
	live := cache.List()
	if len(live) != 2 {
		t.Fatalf("List() after ReplaceAll = %d transactions, want 2", len(live))
	}
	// Newest date first.
	if live[0].ID != "t2" || live[1].ID != "t1" {
		t.Errorf("List() order = [%s %s], want [t2 t1]", live[0].ID, live[1].ID)
	}

	// Copies, not shared pointers: mutating a returned value must not leak in.
	live[0].Amount = 9999
	fresh, _ := cache.Get("t2")
	if fresh.Amount != 40 {
		t.Errorf("cache leaked a shared pointer: amount = %v, want 40", fresh.Amount)
	}
}
