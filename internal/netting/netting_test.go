package netting

import (
	"math"
	"reflect"
	"testing"

	"github.com/splitsync/splitsync/internal/models"
)

func sharedTx(id string, amount float64, payers []models.Payer, participants []models.Participant) *models.Transaction {
	return &models.Transaction{
		ID:        id,
		CreatorID: payers[0].UserID,
		Type:      models.TypeShared,
		Amount:    amount,
		Date:      "2025-06-15",
		Payers:    payers,
		SplitDetails: &models.SplitDetails{
			Method:       models.SplitEqually,
			Participants: participants,
		},
	}
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name string
		tx   *models.Transaction
		want []models.DebtEdge
	}{
		{
			// A and B split $100 equally, A pays the full $100.
			name: "two person equal split single payer",
			tx: sharedTx("t1", 100,
				[]models.Payer{{UserID: "A", AmountPaid: 100}},
				[]models.Participant{
					{UserID: "A", ShareAmount: 50},
					{UserID: "B", ShareAmount: 50},
				}),
			want: []models.DebtEdge{
				{TransactionID: "t1", DebtorID: "B", CreditorID: "A", Amount: 50},
			},
		},
		{
			// $90 dinner split three ways, C pays everything.
			name: "three person split one payer",
			tx: sharedTx("t2", 90,
				[]models.Payer{{UserID: "C", AmountPaid: 90}},
				[]models.Participant{
					{UserID: "A", ShareAmount: 30},
					{UserID: "B", ShareAmount: 30},
					{UserID: "C", ShareAmount: 30},
				}),
			want: []models.DebtEdge{
				{TransactionID: "t2", DebtorID: "A", CreditorID: "C", Amount: 30},
				{TransactionID: "t2", DebtorID: "B", CreditorID: "C", Amount: 30},
			},
		},
		{
			name: "two payers two debtors greedy matching",
			tx: sharedTx("t3", 100,
				[]models.Payer{
					{UserID: "A", AmountPaid: 60},
					{UserID: "B", AmountPaid: 40},
				},
				[]models.Participant{
					{UserID: "A", ShareAmount: 25},
					{UserID: "B", ShareAmount: 25},
					{UserID: "C", ShareAmount: 25},
					{UserID: "D", ShareAmount: 25},
				}),
			// Nets: A +35, B +15, C -25, D -25. Debtors sorted C, D (tie on
			// amount, user id ascending); largest creditor A absorbs C fully,
			// then D pays A the remaining 10 and B the rest.
			want: []models.DebtEdge{
				{TransactionID: "t3", DebtorID: "C", CreditorID: "A", Amount: 25},
				{TransactionID: "t3", DebtorID: "D", CreditorID: "A", Amount: 10},
				{TransactionID: "t3", DebtorID: "D", CreditorID: "B", Amount: 15},
			},
		},
		{
			name: "payer who is not a participant",
			tx: sharedTx("t4", 30,
				[]models.Payer{{UserID: "X", AmountPaid: 30}},
				[]models.Participant{
					{UserID: "A", ShareAmount: 15},
					{UserID: "B", ShareAmount: 15},
				}),
			want: []models.DebtEdge{
				{TransactionID: "t4", DebtorID: "A", CreditorID: "X", Amount: 15},
				{TransactionID: "t4", DebtorID: "B", CreditorID: "X", Amount: 15},
			},
		},
		{
			name: "everyone pays their own share yields no edges",
			tx: sharedTx("t5", 60,
				[]models.Payer{
					{UserID: "A", AmountPaid: 30},
					{UserID: "B", AmountPaid: 30},
				},
				[]models.Participant{
					{UserID: "A", ShareAmount: 30},
					{UserID: "B", ShareAmount: 30},
				}),
			want: nil,
		},
		{
			name: "rounding noise below epsilon is dropped",
			tx: sharedTx("t6", 100,
				[]models.Payer{
					{UserID: "A", AmountPaid: 50.005},
					{UserID: "B", AmountPaid: 49.995},
				},
				[]models.Participant{
					{UserID: "A", ShareAmount: 50},
					{UserID: "B", ShareAmount: 50},
				}),
			want: nil,
		},
		{
			name: "personal transaction has no edges",
			tx: &models.Transaction{
				ID:        "t7",
				CreatorID: "A",
				Type:      models.TypePersonal,
				Amount:    20,
				Date:      "2025-06-01",
				Payers:    []models.Payer{{UserID: "A", AmountPaid: 20}},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recompute(tt.tx)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Recompute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRecomputeSettlement(t *testing.T) {
	t.Run("personal settlement: creator paid counterparty", func(t *testing.T) {
		tx := &models.Transaction{
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
		want := []models.DebtEdge{
			{TransactionID: "s1", DebtorID: "B", CreditorID: "A", Amount: 50},
		}
		if got := Recompute(tx); !reflect.DeepEqual(got, want) {
			t.Errorf("Recompute() = %+v, want %+v", got, want)
		}
	})

	t.Run("revenue settlement: counterparty paid creator", func(t *testing.T) {
		tx := &models.Transaction{
			ID:        "s2",
			CreatorID: "A",
			Type:      models.TypeRevenue,
			Amount:    50,
			Date:      "2025-06-21",
			Payers:    []models.Payer{{UserID: "A", AmountPaid: 50}},
			SplitDetails: &models.SplitDetails{
				Method:       models.SplitSettlement,
				Participants: []models.Participant{{UserID: "B", ShareAmount: 50}},
			},
		}
		want := []models.DebtEdge{
			{TransactionID: "s2", DebtorID: "A", CreditorID: "B", Amount: 50},
		}
		if got := Recompute(tx); !reflect.DeepEqual(got, want) {
			t.Errorf("Recompute() = %+v, want %+v", got, want)
		}
	})
}

func TestRecomputeTombstone(t *testing.T) {
	tx := sharedTx("t1", 100,
		[]models.Payer{{UserID: "A", AmountPaid: 100}},
		[]models.Participant{
			{UserID: "A", ShareAmount: 50},
			{UserID: "B", ShareAmount: 50},
		})
	tx.DeletedAt = 1718000000

	if got := Recompute(tx); got != nil {
		t.Errorf("Recompute() on tombstoned transaction = %+v, want nil", got)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	tx := sharedTx("t1", 123.45,
		[]models.Payer{
			{UserID: "B", AmountPaid: 23.45},
			{UserID: "A", AmountPaid: 100},
		},
		[]models.Participant{
			{UserID: "A", ShareAmount: 41.15},
			{UserID: "B", ShareAmount: 41.15},
			{UserID: "C", ShareAmount: 41.15},
		})

	first := Recompute(tx)
	second := Recompute(tx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Recompute() not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

// The edge set must fully and exactly cover the transaction's imbalance:
// per user, edge totals reproduce the user's net position.
func TestRecomputeZeroSum(t *testing.T) {
	tx := sharedTx("t1", 200,
		[]models.Payer{
			{UserID: "A", AmountPaid: 120},
			{UserID: "B", AmountPaid: 50},
			{UserID: "C", AmountPaid: 30},
		},
		[]models.Participant{
			{UserID: "A", ShareAmount: 40},
			{UserID: "B", ShareAmount: 40},
			{UserID: "C", ShareAmount: 40},
			{UserID: "D", ShareAmount: 40},
			{UserID: "E", ShareAmount: 40},
		})

	edges := Recompute(tx)

	net := map[string]float64{}
	for _, p := range tx.Payers {
		net[p.UserID] += p.AmountPaid
	}
	for _, p := range tx.SplitDetails.Participants {
		net[p.UserID] -= p.ShareAmount
	}

	covered := map[string]float64{}
	for _, e := range edges {
		if e.Amount <= 0 {
			t.Errorf("edge with non-positive amount: %+v", e)
		}
		covered[e.DebtorID] -= e.Amount
		covered[e.CreditorID] += e.Amount
	}

	for userID, want := range net {
		if math.Abs(covered[userID]-want) > 0.01 {
			t.Errorf("user %s covered %v, want net %v", userID, covered[userID], want)
		}
	}

	// Max edges for this bipartite imbalance: debtors + creditors - 1.
	if len(edges) > 4 {
		t.Errorf("got %d edges, want at most 4", len(edges))
	}
}

func TestRecomputeDeterministicOrder(t *testing.T) {
	// Equal creditor amounts: tie must break by ascending user id, so the
	// edge list is reproducible across runs despite map iteration.
	tx := sharedTx("t1", 100,
		[]models.Payer{
			{UserID: "Z", AmountPaid: 50},
			{UserID: "A", AmountPaid: 50},
		},
		[]models.Participant{
			{UserID: "M", ShareAmount: 50},
			{UserID: "N", ShareAmount: 50},
		})

	want := Recompute(tx)
	for i := 0; i < 20; i++ {
		if got := Recompute(tx); !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d differs:\ngot  = %+v\nwant = %+v", i, got, want)
		}
	}
	if want[0].CreditorID != "A" {
		t.Errorf("first creditor = %s, want A (tie-break by user id)", want[0].CreditorID)
	}
}
