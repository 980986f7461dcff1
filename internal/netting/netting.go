// Package netting derives a transaction's debt edges from its payers and
// shares. Recompute is a pure function: the same transaction state always
// yields the same edge set, so the store can blindly replace a transaction's
// edges inside the same atomic unit as the row write.
package netting

import (
	"math"
	"sort"

	"github.com/splitsync/splitsync/internal/models"
)

// epsilon below which a net position is treated as rounding noise.
const epsilon = 0.01

// position is one user's net stake in a single transaction:
// paid minus owed, positive = creditor, negative = debtor.
type position struct {
	userID string
	net    float64
}

// Recompute derives the full edge set for one transaction.
//
// Soft-deleted transactions, and personal/revenue transactions that are not
// settlements, produce an empty set — combined with the store's replace
// semantics that makes deletion a pure edge wipe. Settlements bypass the
// general algorithm and emit exactly one synthetic edge.
func Recompute(tx *models.Transaction) []models.DebtEdge {
	if tx.Deleted() {
		return nil
	}
	if tx.IsSettlement() {
		return settlementEdge(tx)
	}
	if tx.Type != models.TypeShared || tx.SplitDetails == nil {
		return nil
	}

	// Net position per user, local to this call: paid as payer minus owed as
	// participant. A user appearing on only one side still gets an entry.
	net := make(map[string]float64)
	for _, p := range tx.Payers {
		net[p.UserID] += p.AmountPaid
	}
	for _, p := range tx.SplitDetails.Participants {
		net[p.UserID] -= p.ShareAmount
	}

	var debtors, creditors []position
	for userID, n := range net {
		switch {
		case n > epsilon:
			creditors = append(creditors, position{userID, n})
		case n < -epsilon:
			debtors = append(debtors, position{userID, -n})
		}
		// |n| <= epsilon: rounding noise, dropped.
	}

	// Deterministic order: descending amount, ascending user id on ties.
	byAmountDesc(creditors)
	byAmountDesc(debtors)

	return match(tx.ID, debtors, creditors)
}

// match greedily pairs each debtor against the largest remaining creditor.
// Total debt equals total credit by construction, so creditors exhaust
// exactly in step with debtors. Emits at most len(debtors)+len(creditors)-1
// edges.
func match(txID string, debtors, creditors []position) []models.DebtEdge {
	var edges []models.DebtEdge
	j := 0
	for i := 0; i < len(debtors); i++ {
		remaining := debtors[i].net
		for remaining > epsilon && j < len(creditors) {
			amount := math.Min(remaining, creditors[j].net)
			if amount > epsilon {
				edges = append(edges, models.DebtEdge{
					TransactionID: txID,
					DebtorID:      debtors[i].userID,
					CreditorID:    creditors[j].userID,
					Amount:        round2(amount),
				})
			}
			remaining -= amount
			creditors[j].net -= amount
			if creditors[j].net <= epsilon {
				j++
			}
		}
	}
	return edges
}

// settlementEdge emits the single synthetic edge for a settlement.
//
// A personal settlement records "creator paid counterparty", which offsets
// prior imbalance by making the counterparty owe the creator. A revenue
// settlement records "counterparty paid creator" and points the other way.
func settlementEdge(tx *models.Transaction) []models.DebtEdge {
	counterparty := tx.Counterparty()
	if counterparty == "" || counterparty == tx.CreatorID {
		return nil
	}
	edge := models.DebtEdge{
		TransactionID: tx.ID,
		Amount:        round2(tx.Amount),
	}
	if tx.Type == models.TypeRevenue {
		edge.DebtorID = tx.CreatorID
		edge.CreditorID = counterparty
	} else {
		edge.DebtorID = counterparty
		edge.CreditorID = tx.CreatorID
	}
	return []models.DebtEdge{edge}
}

func byAmountDesc(ps []position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].net != ps[j].net {
			return ps[i].net > ps[j].net
		}
		return ps[i].userID < ps[j].userID
	})
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
