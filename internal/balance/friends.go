package balance

import (
	"sort"

	"github.com/splitsync/splitsync/internal/models"
)

// Friends aggregates the signed balance per counterparty for one user.
//
// balance(u, f) = Σ amount where f owes u − Σ amount where u owes f, over the
// given edge set (the caller queries edges of non-deleted transactions only).
// Friends from friendIDs with no edges appear with a zero balance so settled
// friends still show up. Output is sorted by friend id for determinism.
func Friends(userID string, edges []models.DebtEdge, friendIDs []string) []models.FriendBalance {
	sums := make(map[string]float64)
	for _, id := range friendIDs {
		if id != userID {
			sums[id] = 0
		}
	}
	for _, e := range edges {
		switch userID {
		case e.CreditorID:
			sums[e.DebtorID] += e.Amount
		case e.DebtorID:
			sums[e.CreditorID] -= e.Amount
		}
	}

	balances := make([]models.FriendBalance, 0, len(sums))
	for friendID, sum := range sums {
		balances = append(balances, models.FriendBalance{
			FriendID: friendID,
			Balance:  round2(sum),
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].FriendID < balances[j].FriendID
	})
	return balances
}
