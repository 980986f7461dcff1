// Package reconcile keeps a client's local view of the ledger convergent
// with the store: it subscribes to per-table change notifications, coalesces
// bursts into single refresh cycles, retries dropped subscriptions with
// bounded backoff, and holds an optimistic local cache that is always
// overwritten by the authoritative fetch.
package reconcile

import (
	"context"
	"sync"
)

// Event signals that something changed in a table. No payload is guaranteed
// beyond the table name; delivery is at-least-once and may be coalesced.
type Event struct {
	Table string
}

// Feed is the change-notification mechanism the reconciler subscribes to.
type Feed interface {
	// Subscribe registers interest in a table. The returned channel is
	// closed when the subscription drops or ctx is cancelled.
	Subscribe(ctx context.Context, table string) (<-chan Event, error)
}

// Bus is an in-process Feed implementation. The sqlite store publishes to it
// after every successful commit.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewBus creates an empty change-feed bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe implements Feed. The subscription ends when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, table string) (<-chan Event, error) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subs[table] == nil {
		b.subs[table] = make(map[chan Event]struct{})
	}
	b.subs[table][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[table], ch)
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Publish notifies every subscriber of table. Slow subscribers with a full
// buffer are skipped rather than blocked: delivery is at-least-once only in
// combination with the debounced re-fetch, which reads current state anyway.
func (b *Bus) Publish(table string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[table] {
		select {
		case ch <- Event{Table: table}:
		default:
		}
	}
}
