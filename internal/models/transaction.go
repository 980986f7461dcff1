package models

// TransactionType classifies a transaction's effect on the creator's cash.
type TransactionType string

const (
	// TypeRevenue is incoming money (salary, refunds, settlement received).
	TypeRevenue TransactionType = "revenue"
	// TypePersonal is outgoing money with no cost sharing (or a settlement paid).
	TypePersonal TransactionType = "personal"
	// TypeShared is a cost split among several participants.
	TypeShared TransactionType = "shared"
)

// SplitMethod identifies how a shared transaction's cost was divided.
type SplitMethod string

const (
	SplitEqually     SplitMethod = "equally"
	SplitPercentages SplitMethod = "percentages"
	// SplitSettlement marks a settlement: a real cash payment between two
	// users that offsets existing debt instead of recording new shared cost.
	SplitSettlement SplitMethod = "settlement"
)

// SettlementTag is the reserved description prefix that flags a settlement
// transaction for display purposes. The authoritative signal is
// SplitDetails.Method == SplitSettlement; the tag is presentation only.
const SettlementTag = "settled-up"

// Payer records how much one user actually paid toward a transaction.
type Payer struct {
	UserID     string  `json:"user_id"`
	AmountPaid float64 `json:"amount_paid"`
}

// Participant records one user's share of a shared transaction's cost.
// SharePercentage is only meaningful when the split method is "percentages".
type Participant struct {
	UserID          string  `json:"user_id"`
	ShareAmount     float64 `json:"share_amount"`
	SharePercentage float64 `json:"share_percentage,omitempty"`
}

// SplitDetails describes how a transaction's cost is divided.
// Present iff the transaction is shared, or a settlement (where the single
// participant names the counterparty).
type SplitDetails struct {
	Method       SplitMethod   `json:"method"`
	Participants []Participant `json:"participants"`
}

// ActivityEntry is one append-only audit record on a transaction.
// Entries are appended on create/update/delete and never removed.
type ActivityEntry struct {
	Action    string `json:"action"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp int64  `json:"timestamp"`
}

// Transaction represents one economic event in the ledger.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// CreatorID is the user who recorded the transaction. Revenue and
	// personal amounts hit this user's cash position.
	CreatorID string `json:"creator_id"`

	Type TransactionType `json:"type"`

	// Amount is the total transaction amount. Always positive; direction
	// comes from Type.
	Amount float64 `json:"amount"`

	PaymentMode string `json:"payment_mode"`
	Description string `json:"description"`

	// Date is the economic date in ISO form "2006-01-02". Monthly bucketing
	// uses its "2006-01" prefix.
	Date string `json:"date"`

	Category string `json:"category,omitempty"`

	// Payers is who actually put up the cash. Non-empty; the amounts must
	// sum to Amount within the 0.01 epsilon.
	Payers []Payer `json:"payers"`

	// SplitDetails is present iff Type is shared, or this is a settlement.
	SplitDetails *SplitDetails `json:"split_details,omitempty"`

	ActivityLog []ActivityEntry `json:"activity_log,omitempty"`

	// DeletedAt is the tombstone timestamp (unix seconds). Zero means live.
	// Once set the transaction is excluded from every derived view but
	// retained for audit.
	DeletedAt int64 `json:"deleted_at,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// Deleted reports whether the transaction carries a tombstone.
func (t *Transaction) Deleted() bool { return t.DeletedAt != 0 }

// IsSettlement reports whether this transaction is a settlement between the
// creator and exactly one counterparty.
func (t *Transaction) IsSettlement() bool {
	return t.SplitDetails != nil && t.SplitDetails.Method == SplitSettlement
}

// Counterparty returns the settlement counterparty's user ID, or "" if this
// is not a well-formed settlement.
func (t *Transaction) Counterparty() string {
	if !t.IsSettlement() || len(t.SplitDetails.Participants) != 1 {
		return ""
	}
	return t.SplitDetails.Participants[0].UserID
}

// AffectedUsers returns the users whose cash position depends on this
// transaction: the creator plus every payer. Order is stable (creator first,
// then payers in listed order), duplicates removed.
func (t *Transaction) AffectedUsers() []string {
	seen := map[string]bool{t.CreatorID: true}
	users := []string{t.CreatorID}
	for _, p := range t.Payers {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			users = append(users, p.UserID)
		}
	}
	return users
}

// PaidBy returns the amount this user personally paid toward the transaction.
func (t *Transaction) PaidBy(userID string) float64 {
	var paid float64
	for _, p := range t.Payers {
		if p.UserID == userID {
			paid += p.AmountPaid
		}
	}
	return paid
}
