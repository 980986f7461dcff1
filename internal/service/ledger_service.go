package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/splitsync/splitsync/internal/auth"
	"github.com/splitsync/splitsync/internal/balance"
	"github.com/splitsync/splitsync/internal/metrics"
	"github.com/splitsync/splitsync/internal/middleware"
	"github.com/splitsync/splitsync/internal/models"
	"github.com/splitsync/splitsync/internal/netting"
	"github.com/splitsync/splitsync/internal/storage"
	"github.com/splitsync/splitsync/internal/validate"
)

// LedgerService implements the transaction write pipeline and the derived
// read endpoints. Every mutation runs: resolve → validate → net → atomic
// save → carry-forward → (store notifies the change feed post-commit).
type LedgerService struct {
	store    storage.Store
	identity auth.Identity
}

// NewLedgerService creates a ledger service over the given store and
// identity collaborator.
func NewLedgerService(store storage.Store, identity auth.Identity) *LedgerService {
	return &LedgerService{store: store, identity: identity}
}

// CreateTransaction validates and persists a new transaction, derives its
// debt edges in the same atomic unit, and reruns the monthly carry-forward
// for every affected user.
func (s *LedgerService) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	actorID := middleware.GetUserID(ctx)
	tx := req.Msg.Transaction
	tx.ID = ""
	tx.DeletedAt = 0
	tx.ActivityLog = nil
	if tx.CreatorID == "" {
		tx.CreatorID = actorID
	}

	if err := s.resolveCounterparty(ctx, &tx, req.Msg.CounterpartyEmail); err != nil {
		return nil, err
	}
	if err := validate.Transaction(&tx); err != nil {
		slog.Warn("CreateTransaction rejected", "creator_id", tx.CreatorID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.appendActivity(ctx, &tx, "create", actorID); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	edges, err := s.commit(ctx, &tx, tx.AffectedUsers())
	if err != nil {
		return nil, err
	}

	slog.Info("Transaction created", "transaction_id", tx.ID, "type", tx.Type, "edges", len(edges))
	return connect.NewResponse(&TransactionResponse{Transaction: &tx, Edges: edges}), nil
}

// UpdateTransaction replaces an existing transaction's fields and recomputes
// its edge set from scratch: the result is indistinguishable from deleting
// the old transaction and inserting the edited one.
func (s *LedgerService) UpdateTransaction(ctx context.Context, req *connect.Request[UpdateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	actorID := middleware.GetUserID(ctx)

	existing, err := s.store.GetTransaction(ctx, req.Msg.Transaction.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if existing.Deleted() {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("transaction %s is deleted", existing.ID))
	}
	if err := canMutate(existing, actorID); err != nil {
		return nil, connect.NewError(connect.CodePermissionDenied, err)
	}

	tx := req.Msg.Transaction
	tx.CreatorID = existing.CreatorID
	tx.CreatedAt = existing.CreatedAt
	tx.DeletedAt = 0
	tx.ActivityLog = existing.ActivityLog

	if err := s.resolveCounterparty(ctx, &tx, req.Msg.CounterpartyEmail); err != nil {
		return nil, err
	}
	if err := validate.Transaction(&tx); err != nil {
		slog.Warn("UpdateTransaction rejected", "transaction_id", tx.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.appendActivity(ctx, &tx, "update", actorID); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	// An edit can drop a payer, whose cash position must still ripple.
	edges, err := s.commit(ctx, &tx, unionUsers(existing, &tx))
	if err != nil {
		return nil, err
	}

	slog.Info("Transaction updated", "transaction_id", tx.ID, "edges", len(edges))
	return connect.NewResponse(&TransactionResponse{Transaction: &tx, Edges: edges}), nil
}

// DeleteTransaction soft-deletes: the row stays for audit, the edge set is
// wiped, and affected users' monthly balances are rebuilt.
func (s *LedgerService) DeleteTransaction(ctx context.Context, req *connect.Request[DeleteTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	actorID := middleware.GetUserID(ctx)

	tx, err := s.store.GetTransaction(ctx, req.Msg.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err := canMutate(tx, actorID); err != nil {
		return nil, connect.NewError(connect.CodePermissionDenied, err)
	}
	if tx.Deleted() {
		// Tombstoning twice is a no-op, not an error.
		return connect.NewResponse(&TransactionResponse{Transaction: tx}), nil
	}

	tx.DeletedAt = time.Now().Unix()
	if err := s.appendActivity(ctx, tx, "delete", actorID); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if _, err := s.commit(ctx, tx, tx.AffectedUsers()); err != nil {
		return nil, err
	}

	slog.Info("Transaction deleted", "transaction_id", tx.ID)
	return connect.NewResponse(&TransactionResponse{Transaction: tx}), nil
}

// GetTransaction returns one transaction with its current edge set.
func (s *LedgerService) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	tx, err := s.store.GetTransaction(ctx, req.Msg.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	edges, err := s.store.EdgesForTransaction(ctx, tx.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: tx, Edges: edges}), nil
}

// ListTransactions returns the caller's transactions, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	userID := middleware.GetUserID(ctx)
	txs, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		Type:           models.TransactionType(req.Msg.Type),
		Month:          req.Msg.Month,
		IncludeDeleted: req.Msg.IncludeDeleted,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListTransactionsResponse{Transactions: txs}), nil
}

// FriendBalances aggregates the caller's signed balance per friend from the
// current edge set, including zero balances for settled friends.
func (s *LedgerService) FriendBalances(ctx context.Context, req *connect.Request[FriendBalancesRequest]) (*connect.Response[FriendBalancesResponse], error) {
	userID := middleware.GetUserID(ctx)

	edges, err := s.store.EdgesForUser(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	friends, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	balances := balance.Friends(userID, edges, friends)

	ids := make([]string, len(balances))
	for i, b := range balances {
		ids[i] = b.FriendID
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	views := make([]FriendBalanceView, len(balances))
	for i, b := range balances {
		views[i] = FriendBalanceView{FriendID: b.FriendID, Balance: b.Balance}
		if u := users[b.FriendID]; u != nil {
			views[i].Email = u.Email
			views[i].DisplayName = u.DisplayName
		}
	}
	return connect.NewResponse(&FriendBalancesResponse{Balances: views}), nil
}

// MonthlyBalances returns the caller's persisted carry-forward sequence.
func (s *LedgerService) MonthlyBalances(ctx context.Context, req *connect.Request[MonthlyBalancesRequest]) (*connect.Response[MonthlyBalancesResponse], error) {
	userID := middleware.GetUserID(ctx)
	balances, err := s.store.MonthlyBalances(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&MonthlyBalancesResponse{Balances: balances}), nil
}

// AddFriend connects the caller with another registered user by email.
func (s *LedgerService) AddFriend(ctx context.Context, req *connect.Request[AddFriendRequest]) (*connect.Response[AddFriendResponse], error) {
	userID := middleware.GetUserID(ctx)

	friend, err := s.identity.ResolveEmail(ctx, req.Msg.Email)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if friend == nil {
		return nil, connect.NewError(connect.CodeNotFound,
			fmt.Errorf("no user with email %s", req.Msg.Email))
	}
	if err := s.store.AddFriend(ctx, userID, friend.ID); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Info("Friend added", "user_id", userID, "friend_id", friend.ID)
	return connect.NewResponse(&AddFriendResponse{Friend: UserView{
		ID:          friend.ID,
		Email:       friend.Email,
		DisplayName: friend.DisplayName,
	}}), nil
}

// ListFriends returns the caller's friends with display fields.
func (s *LedgerService) ListFriends(ctx context.Context, req *connect.Request[ListFriendsRequest]) (*connect.Response[ListFriendsResponse], error) {
	userID := middleware.GetUserID(ctx)

	ids, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	friends := make([]UserView, 0, len(ids))
	for _, id := range ids {
		view := UserView{ID: id}
		if u := users[id]; u != nil {
			view.Email = u.Email
			view.DisplayName = u.DisplayName
		}
		friends = append(friends, view)
	}
	return connect.NewResponse(&ListFriendsResponse{Friends: friends}), nil
}

// commit recomputes the edge set, writes transaction and edges atomically,
// and rebuilds the monthly balances of every affected user.
func (s *LedgerService) commit(ctx context.Context, tx *models.Transaction, affected []string) ([]models.DebtEdge, error) {
	start := time.Now()
	edges := netting.Recompute(tx)

	if err := s.store.SaveTransaction(ctx, tx, edges); err != nil {
		slog.Error("SaveTransaction failed", "transaction_id", tx.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	metrics.EdgesReplaced.Add(float64(len(edges)))

	for _, userID := range affected {
		if err := s.carryForward(ctx, userID); err != nil {
			slog.Error("Carry-forward failed", "user_id", userID, "error", err)
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}
	return edges, nil
}

// carryForward rebuilds one user's full monthly balance sequence. An edit to
// a months-old transaction ripples through every later month because the
// sequence is always recomputed from the earliest transaction onward.
func (s *LedgerService) carryForward(ctx context.Context, userID string) error {
	txs, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return err
	}
	balances, err := balance.CarryForward(userID, txs, balance.CurrentMonth())
	if err != nil {
		return err
	}
	return s.store.ReplaceMonthlyBalances(ctx, userID, balances)
}

// resolveCounterparty fills in a settlement's counterparty user id from an
// email, and rejects settlements whose counterparty is not a known user.
// Unknown counterparties fail the write up front instead of committing an
// orphaned settlement with no offsetting edge.
func (s *LedgerService) resolveCounterparty(ctx context.Context, tx *models.Transaction, email string) error {
	if !tx.IsSettlement() {
		return nil
	}
	if len(tx.SplitDetails.Participants) != 1 {
		return connect.NewError(connect.CodeInvalidArgument, validate.ErrBadSettlementShape)
	}

	p := &tx.SplitDetails.Participants[0]
	if p.UserID == "" && email != "" {
		user, err := s.identity.ResolveEmail(ctx, email)
		if err != nil {
			return connect.NewError(connect.CodeInternal, err)
		}
		if user == nil {
			return connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("%w: %s", validate.ErrUnknownCounterparty, email))
		}
		p.UserID = user.ID
		p.ShareAmount = tx.Amount
	}

	user, err := s.identity.Resolve(ctx, p.UserID)
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	if user == nil {
		return connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("%w: %s", validate.ErrUnknownCounterparty, p.UserID))
	}
	return nil
}

// appendActivity appends one audit entry with the actor's display name
// resolved through the identity collaborator.
func (s *LedgerService) appendActivity(ctx context.Context, tx *models.Transaction, action, actorID string) error {
	name := actorID
	if user, err := s.identity.Resolve(ctx, actorID); err == nil && user != nil {
		name = user.DisplayName
	}
	tx.ActivityLog = append(tx.ActivityLog, models.ActivityEntry{
		Action:    action,
		UserID:    actorID,
		UserName:  name,
		Timestamp: time.Now().Unix(),
	})
	return nil
}

// canMutate enforces the mutation rule: creator, any payer, or any split
// participant.
func canMutate(tx *models.Transaction, userID string) error {
	if userID == tx.CreatorID {
		return nil
	}
	for _, p := range tx.Payers {
		if p.UserID == userID {
			return nil
		}
	}
	if tx.SplitDetails != nil {
		for _, p := range tx.SplitDetails.Participants {
			if p.UserID == userID {
				return nil
			}
		}
	}
	return errors.New("only the creator, a payer, or a participant may modify a transaction")
}

// unionUsers merges the affected-user sets of two transaction versions.
func unionUsers(a, b *models.Transaction) []string {
	seen := make(map[string]bool)
	var users []string
	for _, list := range [][]string{a.AffectedUsers(), b.AffectedUsers()} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				users = append(users, id)
			}
		}
	}
	return users
}
