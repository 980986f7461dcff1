// Package balance computes the ledger's read-side aggregates: per-friend
// signed balances from the current edge set, and the monthly cash position
// sequence carried forward across calendar months.
package balance

import (
	"fmt"
	"math"

	"github.com/splitsync/splitsync/internal/models"
)

// monthFlow is one month's cash movement for a single user.
type monthFlow struct {
	revenue float64
	spent   float64
}

// CarryForward rebuilds the full monthly balance sequence for one user from
// their non-deleted transactions.
//
// Spent is cash actually paid out (own amount_paid on shared transactions,
// full amount on personal ones), not share owed: this tracks cash position,
// not cost allocation. Every month from the earliest transaction through
// `current` is produced, with activity-free months forward-filled as
// opening == closing == previous closing, so the telescoping invariant
// opening[m+1] == closing[m] holds across the whole range. Rerunning with the
// same transaction set reproduces identical values.
func CarryForward(userID string, txs []*models.Transaction, current Month) ([]models.MonthlyBalance, error) {
	flows := make(map[Month]*monthFlow)
	var first Month
	haveFirst := false

	for _, tx := range txs {
		if tx.Deleted() {
			continue
		}
		var revenue, spent float64
		switch tx.Type {
		case models.TypeRevenue:
			if tx.CreatorID == userID {
				revenue = tx.Amount
			}
		case models.TypePersonal:
			if tx.CreatorID == userID {
				spent = tx.Amount
			}
		case models.TypeShared:
			spent = tx.PaidBy(userID)
		}
		if revenue == 0 && spent == 0 {
			continue
		}

		m, err := MonthOfDate(tx.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		f := flows[m]
		if f == nil {
			f = &monthFlow{}
			flows[m] = f
		}
		f.revenue += revenue
		f.spent += spent
		if !haveFirst || m.Before(first) {
			first = m
			haveFirst = true
		}
	}

	if !haveFirst {
		return nil, nil
	}
	if current.Before(first) {
		current = first
	}

	var balances []models.MonthlyBalance
	var closing float64
	for m := first; !m.After(current); m = m.Next() {
		opening := closing
		if f := flows[m]; f != nil {
			closing = round2(opening + f.revenue - f.spent)
		}
		balances = append(balances, models.MonthlyBalance{
			UserID:         userID,
			Month:          m.String(),
			OpeningBalance: round2(opening),
			ClosingBalance: closing,
		})
	}
	return balances, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
