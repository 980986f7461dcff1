package service

import "github.com/splitsync/splitsync/internal/models"

// Wire messages for the Connect RPC surface. Field names follow the
// persisted shapes in internal/models field-for-field.

// UserView is the public projection of a user account.
type UserView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type CreateTransactionRequest struct {
	Transaction models.Transaction `json:"transaction"`

	// CounterpartyEmail optionally names a settlement counterparty by email
	// instead of user id; the service resolves it before validation.
	CounterpartyEmail string `json:"counterparty_email,omitempty"`
}

type UpdateTransactionRequest struct {
	Transaction       models.Transaction `json:"transaction"`
	CounterpartyEmail string             `json:"counterparty_email,omitempty"`
}

type DeleteTransactionRequest struct {
	ID string `json:"id"`
}

type GetTransactionRequest struct {
	ID string `json:"id"`
}

type TransactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	// Edges is the transaction's current derived edge set.
	Edges []models.DebtEdge `json:"edges,omitempty"`
}

type ListTransactionsRequest struct {
	Type           string `json:"type,omitempty"`
	Month          string `json:"month,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []*models.Transaction `json:"transactions"`
}

type FriendBalancesRequest struct{}

// FriendBalanceView is one friend's signed balance with display fields
// resolved through the identity collaborator.
type FriendBalanceView struct {
	FriendID    string  `json:"friend_id"`
	Email       string  `json:"email,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Balance     float64 `json:"balance"`
}

type FriendBalancesResponse struct {
	Balances []FriendBalanceView `json:"balances"`
}

type MonthlyBalancesRequest struct{}

type MonthlyBalancesResponse struct {
	Balances []models.MonthlyBalance `json:"balances"`
}

type AddFriendRequest struct {
	Email string `json:"email"`
}

type AddFriendResponse struct {
	Friend UserView `json:"friend"`
}

type ListFriendsRequest struct{}

type ListFriendsResponse struct {
	Friends []UserView `json:"friends"`
}
