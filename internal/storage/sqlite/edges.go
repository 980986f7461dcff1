package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/splitsync/splitsync/internal/models"
)

// EdgesForUser returns every edge of a non-deleted transaction where the
// user is debtor or creditor. Tombstoned transactions keep no edges by
// construction, but the join guards against any window where a tombstone
// commit and its edge wipe could be observed separately by another backend.
func (s *SQLiteStore) EdgesForUser(ctx context.Context, userID string) ([]models.DebtEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.transaction_id, e.debtor_id, e.creditor_id, e.amount
		 FROM debt_edges e
		 JOIN transactions t ON t.id = e.transaction_id
		 WHERE t.deleted_at = 0 AND (e.debtor_id = ? OR e.creditor_id = ?)
		 ORDER BY e.transaction_id, e.debtor_id, e.creditor_id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges for user: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// EdgesForTransaction returns the current edge set of one transaction.
func (s *SQLiteStore) EdgesForTransaction(ctx context.Context, txID string) ([]models.DebtEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id, debtor_id, creditor_id, amount
		 FROM debt_edges WHERE transaction_id = ?
		 ORDER BY debtor_id, creditor_id`,
		txID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges for transaction: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]models.DebtEdge, error) {
	var edges []models.DebtEdge
	for rows.Next() {
		var e models.DebtEdge
		if err := rows.Scan(&e.TransactionID, &e.DebtorID, &e.CreditorID, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}
	return edges, nil
}
