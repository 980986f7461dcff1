package models

// DebtEdge is a derived, directed debt weight owned by one transaction.
//
// Edges are never hand-written: the netting engine replaces a transaction's
// full edge set on every recompute. The edge set for one transaction always
// nets to zero across its participants, and an edge amount is always > 0.
type DebtEdge struct {
	TransactionID string  `json:"transaction_id"`
	DebtorID      string  `json:"debtor_id"`
	CreditorID    string  `json:"creditor_id"`
	Amount        float64 `json:"amount"`
}
