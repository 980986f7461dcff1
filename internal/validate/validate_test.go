package validate

import (
	"errors"
	"testing"

	"github.com/splitsync/splitsync/internal/models"
)

func validShared() *models.Transaction {
	return &models.Transaction{
		ID:        "t1",
		CreatorID: "A",
		Type:      models.TypeShared,
		Amount:    100,
		Date:      "2025-06-15",
		Payers:    []models.Payer{{UserID: "A", AmountPaid: 100}},
		SplitDetails: &models.SplitDetails{
			Method: models.SplitEqually,
			Participants: []models.Participant{
				{UserID: "A", ShareAmount: 50},
				{UserID: "B", ShareAmount: 50},
			},
		},
	}
}

func TestTransaction(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tx *models.Transaction)
		wantErr error
	}{
		{
			name:    "valid shared transaction",
			mutate:  func(tx *models.Transaction) {},
			wantErr: nil,
		},
		{
			name: "valid within epsilon",
			mutate: func(tx *models.Transaction) {
				tx.Payers[0].AmountPaid = 100.009
				tx.SplitDetails.Participants[0].ShareAmount = 49.995
			},
			wantErr: nil,
		},
		{
			name:    "zero amount",
			mutate:  func(tx *models.Transaction) { tx.Amount = 0 },
			wantErr: ErrNonPositiveAmount,
		},
		{
			name:    "malformed date",
			mutate:  func(tx *models.Transaction) { tx.Date = "junk-date" },
			wantErr: ErrBadDate,
		},
		{
			name:    "date without zero padding",
			mutate:  func(tx *models.Transaction) { tx.Date = "2025-6-1" },
			wantErr: ErrBadDate,
		},
		{
			name:    "unknown type",
			mutate:  func(tx *models.Transaction) { tx.Type = "loan" },
			wantErr: ErrUnknownType,
		},
		{
			name:    "empty payers",
			mutate:  func(tx *models.Transaction) { tx.Payers = nil },
			wantErr: ErrEmptyPayers,
		},
		{
			name: "payer sum mismatch",
			mutate: func(tx *models.Transaction) {
				tx.Payers = []models.Payer{{UserID: "A", AmountPaid: 90}}
			},
			wantErr: ErrPayerSumMismatch,
		},
		{
			// Shares sum to 95 on a 100 transaction: rejected before any
			// edge computation.
			name: "share sum mismatch",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails.Participants[1].ShareAmount = 45
			},
			wantErr: ErrShareSumMismatch,
		},
		{
			name: "shared without split details",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails = nil
			},
			wantErr: ErrMissingSplitDetails,
		},
		{
			name: "shared with no participants",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails.Participants = nil
			},
			wantErr: ErrEmptyParticipants,
		},
		{
			name: "duplicate participant",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails.Participants[1].UserID = "A"
			},
			wantErr: ErrDuplicateParticipant,
		},
		{
			name: "percentages not summing to 100",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails.Method = models.SplitPercentages
				tx.SplitDetails.Participants[0].SharePercentage = 50
				tx.SplitDetails.Participants[1].SharePercentage = 45
			},
			wantErr: ErrPercentSumMismatch,
		},
		{
			name: "percentages within tolerance",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails.Method = models.SplitPercentages
				tx.SplitDetails.Participants[0].SharePercentage = 50.05
				tx.SplitDetails.Participants[1].SharePercentage = 50
			},
			wantErr: nil,
		},
		{
			name: "unknown split method",
			mutate: func(tx *models.Transaction) {
				tx.SplitDetails.Method = "byweight"
			},
			wantErr: ErrUnknownSplitMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validShared()
			tt.mutate(tx)
			err := Transaction(tx)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Transaction() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transaction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionSettlement(t *testing.T) {
	settlement := func() *models.Transaction {
		return &models.Transaction{
			ID:          "s1",
			CreatorID:   "A",
			Type:        models.TypePersonal,
			Amount:      50,
			Date:        "2025-06-20",
			Description: models.SettlementTag + " with B",
			Payers:      []models.Payer{{UserID: "A", AmountPaid: 50}},
			SplitDetails: &models.SplitDetails{
				Method:       models.SplitSettlement,
				Participants: []models.Participant{{UserID: "B", ShareAmount: 50}},
			},
		}
	}

	t.Run("valid settlement", func(t *testing.T) {
		if err := Transaction(settlement()); err != nil {
			t.Errorf("Transaction() error = %v, want nil", err)
		}
	})

	t.Run("settlement on a shared transaction", func(t *testing.T) {
		tx := settlement()
		tx.Type = models.TypeShared
		if err := Transaction(tx); !errors.Is(err, ErrSettlementType) {
			t.Errorf("Transaction() error = %v, want %v", err, ErrSettlementType)
		}
	})

	t.Run("settlement with two participants", func(t *testing.T) {
		tx := settlement()
		tx.SplitDetails.Participants = append(tx.SplitDetails.Participants,
			models.Participant{UserID: "C", ShareAmount: 0})
		if err := Transaction(tx); !errors.Is(err, ErrBadSettlementShape) {
			t.Errorf("Transaction() error = %v, want %v", err, ErrBadSettlementShape)
		}
	})

	t.Run("settlement with empty counterparty", func(t *testing.T) {
		tx := settlement()
		tx.SplitDetails.Participants[0].UserID = ""
		if err := Transaction(tx); !errors.Is(err, ErrBadSettlementShape) {
			t.Errorf("Transaction() error = %v, want %v", err, ErrBadSettlementShape)
		}
	})

	// The counterparty share is the settlement amount; a diverging share would
	// persist one figure while the edge carries another.
	t.Run("settlement share diverges from amount", func(t *testing.T) {
		tx := settlement()
		tx.SplitDetails.Participants[0].ShareAmount = 999
		if err := Transaction(tx); !errors.Is(err, ErrShareSumMismatch) {
			t.Errorf("Transaction() error = %v, want %v", err, ErrShareSumMismatch)
		}
	})
}
