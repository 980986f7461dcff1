package reconcile

import (
	"sort"
	"sync"

	"github.com/splitsync/splitsync/internal/models"
)

// Cache is a client's local transaction view with optimistic mutation.
//
// A writer applies its own create/update/soft-delete immediately via
// ApplyLocal so the UI reflects the action before the round trip completes.
// When the authoritative fetch lands, ReplaceAll swaps the whole view:
// authoritative always wins, local state is never merged.
type Cache struct {
	mu  sync.RWMutex
	txs map[string]*models.Transaction
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{txs: make(map[string]*models.Transaction)}
}

// ApplyLocal records an optimistic mutation. Soft deletes go through here
// too, as an update with DeletedAt set.
func (c *Cache) ApplyLocal(tx *models.Transaction) {
	clone := *tx
	c.mu.Lock()
	c.txs[tx.ID] = &clone
	c.mu.Unlock()
}

// ReplaceAll swaps the local view with the authoritative result.
func (c *Cache) ReplaceAll(txs []*models.Transaction) {
	fresh := make(map[string]*models.Transaction, len(txs))
	for _, tx := range txs {
		clone := *tx
		fresh[tx.ID] = &clone
	}
	c.mu.Lock()
	c.txs = fresh
	c.mu.Unlock()
}

// Get returns a copy of one transaction.
func (c *Cache) Get(id string) (*models.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tx, ok := c.txs[id]
	if !ok {
		return nil, false
	}
	clone := *tx
	return &clone, true
}

// List returns copies of the live (non-tombstoned) transactions, newest
// date first with id as tie-break.
func (c *Cache) List() []*models.Transaction {
	c.mu.RLock()
	txs := make([]*models.Transaction, 0, len(c.txs))
	for _, tx := range c.txs {
		if tx.Deleted() {
			continue
		}
		clone := *tx
		txs = append(txs, &clone)
	}
	c.mu.RUnlock()

	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].ID < txs[j].ID
	})
	return txs
}

// Len reports the number of cached transactions, tombstones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.txs)
}
