// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/splitsync/splitsync/internal/models"
)

// TransactionFilter narrows ListTransactions results.
// Zero value means "all live transactions touching the user".
type TransactionFilter struct {
	// Type restricts to one transaction type when non-empty.
	Type models.TransactionType
	// Month restricts to an ISO month key "2006-01" when non-empty.
	Month string
	// IncludeDeleted also returns tombstoned transactions (audit views).
	IncludeDeleted bool
}

// Store defines the ledger's storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// SaveTransaction persists the transaction row, its payers, split
	// participants and activity log, and replaces the transaction's entire
	// debt edge set — all in one atomic unit. Passing an empty edge set
	// wipes the edges (soft delete, or a type change away from netting
	// relevance). Readers never observe the row without its edges.
	SaveTransaction(ctx context.Context, tx *models.Transaction, edges []models.DebtEdge) error

	// GetTransaction retrieves one transaction, tombstoned or not.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// ListTransactions returns transactions touching the user as creator,
	// payer, or split participant, filtered by f, newest date first.
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]*models.Transaction, error)

	// EdgesForUser returns all debt edges of non-deleted transactions where
	// the user is debtor or creditor.
	EdgesForUser(ctx context.Context, userID string) ([]models.DebtEdge, error)

	// EdgesForTransaction returns the current edge set of one transaction.
	EdgesForTransaction(ctx context.Context, txID string) ([]models.DebtEdge, error)

	// ReplaceMonthlyBalances swaps a user's entire monthly balance sequence
	// for the given one. An empty sequence clears the user's rows, so an
	// edit that removes a user's last cash flow leaves no stale months.
	// Idempotent: rerunning with the same values is a no-op.
	ReplaceMonthlyBalances(ctx context.Context, userID string, balances []models.MonthlyBalance) error

	// MonthlyBalances returns a user's balances in ascending month order.
	MonthlyBalances(ctx context.Context, userID string) ([]models.MonthlyBalance, error)

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUsersByIDs returns the found users keyed by ID; missing IDs are
	// omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// AddFriend records a mutual friend connection.
	AddFriend(ctx context.Context, userID, friendID string) error
	// ListFriends returns the user's friend IDs in ascending order.
	ListFriends(ctx context.Context, userID string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Notifier receives a post-commit signal that rows in a table changed.
// The sqlite store publishes to it after every successful write commit.
type Notifier interface {
	Publish(table string)
}
