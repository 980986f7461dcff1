package models

// FriendBalance is the signed aggregate of all debt edges between a user and
// one friend. Positive means the friend owes the user.
//
// Not persisted: always recomputed from the current edge set, so it is
// correct immediately after a netting recompute commits.
type FriendBalance struct {
	FriendID string  `json:"friend_id"`
	Balance  float64 `json:"balance"`
}

// MonthlyBalance is one user's cash position for one calendar month.
//
// Persisted per (user_id, month) and rebuilt by the carry-forward sequence.
// Telescoping invariant: opening of month m+1 equals closing of month m for
// every pair of consecutive computed months.
type MonthlyBalance struct {
	UserID string `json:"user_id"`
	// Month is the ISO month key "2006-01".
	Month          string  `json:"month"`
	OpeningBalance float64 `json:"opening_balance"`
	ClosingBalance float64 `json:"closing_balance"`
}
