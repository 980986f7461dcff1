package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitsync/splitsync/internal/models"
	"github.com/splitsync/splitsync/internal/storage"
)

// SaveTransaction writes the transaction row, its child rows, and its full
// debt edge set in one sql transaction. The edge set is replaced wholesale:
// old edges for the id are deleted before the new ones are inserted, so a
// reader never sees a committed row with a stale or half-written edge set.
func (s *SQLiteStore) SaveTransaction(ctx context.Context, t *models.Transaction, edges []models.DebtEdge) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var category interface{}
	if t.Category != "" {
		category = t.Category
	}
	var splitMethod interface{}
	if t.SplitDetails != nil {
		splitMethod = string(t.SplitDetails.Method)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, creator_id, type, amount, payment_mode, description, date, category, split_method, deleted_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     creator_id = excluded.creator_id,
		     type = excluded.type,
		     amount = excluded.amount,
		     payment_mode = excluded.payment_mode,
		     description = excluded.description,
		     date = excluded.date,
		     category = excluded.category,
		     split_method = excluded.split_method,
		     deleted_at = excluded.deleted_at`,
		t.ID, t.CreatorID, string(t.Type), t.Amount, t.PaymentMode, t.Description,
		t.Date, category, splitMethod, t.DeletedAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	// Child rows are owned by the transaction; rewrite them in full.
	for _, table := range []string{"transaction_payers", "transaction_participants", "activity_log", "debt_edges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE transaction_id = ?", t.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, p := range t.Payers {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO transaction_payers (transaction_id, user_id, amount_paid) VALUES (?, ?, ?)",
			t.ID, p.UserID, p.AmountPaid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payer: %w", err)
		}
	}

	if t.SplitDetails != nil {
		for _, p := range t.SplitDetails.Participants {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO transaction_participants (transaction_id, user_id, share_amount, share_percentage) VALUES (?, ?, ?, ?)",
				t.ID, p.UserID, p.ShareAmount, p.SharePercentage,
			)
			if err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}
	}

	// The activity log is append-only at the service level; the full list is
	// rewritten here in order, which preserves that property.
	for _, entry := range t.ActivityLog {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO activity_log (transaction_id, action, user_id, user_name, timestamp) VALUES (?, ?, ?, ?, ?)",
			t.ID, entry.Action, entry.UserID, entry.UserName, entry.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert activity entry: %w", err)
		}
	}

	for _, e := range edges {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO debt_edges (transaction_id, debtor_id, creditor_id, amount) VALUES (?, ?, ?, ?)",
			t.ID, e.DebtorID, e.CreditorID, e.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notify(TableTransactions, TableDebtEdges)
	return nil
}

// GetTransaction retrieves a transaction by ID, tombstoned or not.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t := &models.Transaction{}
	var category, splitMethod sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, creator_id, type, amount, payment_mode, description, date, category, split_method, deleted_at, created_at
		 FROM transactions WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.CreatorID, (*string)(&t.Type), &t.Amount, &t.PaymentMode,
		&t.Description, &t.Date, &category, &splitMethod, &t.DeletedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if category.Valid {
		t.Category = category.String
	}

	if err := s.loadPayers(ctx, t); err != nil {
		return nil, err
	}
	if splitMethod.Valid {
		if err := s.loadSplitDetails(ctx, t, splitMethod.String); err != nil {
			return nil, err
		}
	}
	if err := s.loadActivityLog(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// ListTransactions returns transactions touching the user, newest date first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]*models.Transaction, error) {
	query := `
		SELECT DISTINCT t.id FROM transactions t
		LEFT JOIN transaction_payers p ON p.transaction_id = t.id
		LEFT JOIN transaction_participants sp ON sp.transaction_id = t.id
		WHERE (t.creator_id = ? OR p.user_id = ? OR sp.user_id = ?)`
	args := []interface{}{userID, userID, userID}

	if !f.IncludeDeleted {
		query += " AND t.deleted_at = 0"
	}
	if f.Type != "" {
		query += " AND t.type = ?"
		args = append(args, string(f.Type))
	}
	if f.Month != "" {
		query += " AND substr(t.date, 1, 7) = ?"
		args = append(args, f.Month)
	}
	query += " ORDER BY t.date DESC, t.created_at DESC, t.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	txs := make([]*models.Transaction, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (s *SQLiteStore) loadPayers(ctx context.Context, t *models.Transaction) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount_paid FROM transaction_payers WHERE transaction_id = ? ORDER BY user_id",
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Payer
		if err := rows.Scan(&p.UserID, &p.AmountPaid); err != nil {
			return fmt.Errorf("failed to scan payer: %w", err)
		}
		t.Payers = append(t.Payers, p)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSplitDetails(ctx context.Context, t *models.Transaction, method string) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, share_amount, share_percentage FROM transaction_participants WHERE transaction_id = ? ORDER BY user_id",
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	sd := &models.SplitDetails{Method: models.SplitMethod(method)}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.ShareAmount, &p.SharePercentage); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		sd.Participants = append(sd.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	t.SplitDetails = sd
	return nil
}

func (s *SQLiteStore) loadActivityLog(ctx context.Context, t *models.Transaction) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT action, user_id, user_name, timestamp FROM activity_log WHERE transaction_id = ? ORDER BY seq",
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get activity log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.Action, &e.UserID, &e.UserName, &e.Timestamp); err != nil {
			return fmt.Errorf("failed to scan activity entry: %w", err)
		}
		t.ActivityLog = append(t.ActivityLog, e)
	}
	return rows.Err()
}
