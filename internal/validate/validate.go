// Package validate enforces transaction invariants before anything reaches
// the netting engine or the store. A transaction that passes here cannot make
// the netting engine fail on business logic.
package validate

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/splitsync/splitsync/internal/models"
)

// dateFormat is the ISO date layout every transaction date must parse as.
// Monthly bucketing slices the "2006-01" prefix, so a malformed date that
// slipped past here would only surface after the row had committed.
const dateFormat = "2006-01-02"

// Epsilon is the tolerance for monetary equality checks.
const Epsilon = 0.01

// percentEpsilon is the tolerance for percentage-sum checks.
const percentEpsilon = 0.1

var (
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrEmptyPayers          = errors.New("payers must not be empty")
	ErrEmptyParticipants    = errors.New("shared transaction must have participants")
	ErrMissingSplitDetails  = errors.New("shared transaction requires split_details")
	ErrPayerSumMismatch     = errors.New("payer amounts do not sum to transaction amount")
	ErrShareSumMismatch     = errors.New("participant shares do not sum to transaction amount")
	ErrPercentSumMismatch   = errors.New("share percentages do not sum to 100")
	ErrBadDate              = errors.New("date must be an ISO date (2006-01-02)")
	ErrBadSettlementShape   = errors.New("settlement must name exactly one counterparty")
	ErrSettlementType       = errors.New("settlement must be a personal or revenue transaction")
	ErrUnknownCounterparty  = errors.New("settlement counterparty is not a known user")
	ErrUnknownType          = errors.New("unknown transaction type")
	ErrUnknownSplitMethod   = errors.New("unknown split method")
	ErrDuplicateParticipant = errors.New("duplicate participant user id")
)

// Transaction checks every structural and monetary invariant on tx.
// It reports the first violation found; nothing is ever coerced to fit
// (amounts are never rescaled to repair a mismatched split).
func Transaction(tx *models.Transaction) error {
	switch tx.Type {
	case models.TypeRevenue, models.TypePersonal, models.TypeShared:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, tx.Type)
	}

	if tx.Amount <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrNonPositiveAmount, tx.Amount)
	}

	if _, err := time.Parse(dateFormat, tx.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrBadDate, tx.Date)
	}

	if len(tx.Payers) == 0 {
		return ErrEmptyPayers
	}
	var paid float64
	for _, p := range tx.Payers {
		paid += p.AmountPaid
	}
	if math.Abs(paid-tx.Amount) > Epsilon {
		return fmt.Errorf("%w: payers sum %.2f, amount %.2f", ErrPayerSumMismatch, paid, tx.Amount)
	}

	if tx.IsSettlement() {
		return settlement(tx)
	}

	if tx.Type != models.TypeShared {
		// Personal and revenue transactions carry no split.
		return nil
	}

	if tx.SplitDetails == nil {
		return ErrMissingSplitDetails
	}
	sd := tx.SplitDetails
	switch sd.Method {
	case models.SplitEqually, models.SplitPercentages:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSplitMethod, sd.Method)
	}
	if len(sd.Participants) == 0 {
		return ErrEmptyParticipants
	}

	seen := make(map[string]bool, len(sd.Participants))
	var shares, percents float64
	for _, p := range sd.Participants {
		if seen[p.UserID] {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.UserID)
		}
		seen[p.UserID] = true
		shares += p.ShareAmount
		percents += p.SharePercentage
	}
	if math.Abs(shares-tx.Amount) > Epsilon {
		return fmt.Errorf("%w: shares sum %.2f, amount %.2f", ErrShareSumMismatch, shares, tx.Amount)
	}
	if sd.Method == models.SplitPercentages && math.Abs(percents-100) > percentEpsilon {
		return fmt.Errorf("%w: got %.2f", ErrPercentSumMismatch, percents)
	}

	return nil
}

// settlement checks the settlement special case: a personal or revenue
// transaction whose split names exactly one counterparty.
func settlement(tx *models.Transaction) error {
	if tx.Type == models.TypeShared {
		return ErrSettlementType
	}
	if len(tx.SplitDetails.Participants) != 1 {
		return fmt.Errorf("%w: got %d participants", ErrBadSettlementShape, len(tx.SplitDetails.Participants))
	}
	p := tx.SplitDetails.Participants[0]
	if p.UserID == "" {
		return ErrBadSettlementShape
	}
	if math.Abs(p.ShareAmount-tx.Amount) > Epsilon {
		return fmt.Errorf("%w: share %.2f, amount %.2f", ErrShareSumMismatch, p.ShareAmount, tx.Amount)
	}
	return nil
}
