package sqlite

import (
	"context"
	"fmt"

	"github.com/splitsync/splitsync/internal/models"
)

// ReplaceMonthlyBalances swaps a user's carry-forward result in one sql
// transaction. The old rows are dropped first so months no longer produced
// by the recompute do not linger.
func (s *SQLiteStore) ReplaceMonthlyBalances(ctx context.Context, userID string, balances []models.MonthlyBalance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_balances WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear monthly balances: %w", err)
	}
	for _, b := range balances {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO monthly_balances (user_id, month, opening_balance, closing_balance)
			 VALUES (?, ?, ?, ?)`,
			b.UserID, b.Month, b.OpeningBalance, b.ClosingBalance,
		)
		if err != nil {
			return fmt.Errorf("failed to insert monthly balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit monthly balances: %w", err)
	}

	s.notify(TableMonthlyBalances)
	return nil
}

// MonthlyBalances returns a user's balances in ascending month order.
// The ISO month key sorts chronologically as text.
func (s *SQLiteStore) MonthlyBalances(ctx context.Context, userID string) ([]models.MonthlyBalance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, month, opening_balance, closing_balance
		 FROM monthly_balances WHERE user_id = ? ORDER BY month`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly balances: %w", err)
	}
	defer rows.Close()

	var balances []models.MonthlyBalance
	for rows.Next() {
		var b models.MonthlyBalance
		if err := rows.Scan(&b.UserID, &b.Month, &b.OpeningBalance, &b.ClosingBalance); err != nil {
			return nil, fmt.Errorf("failed to scan monthly balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly balances: %w", err)
	}
	return balances, nil
}
