package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// Service names on the wire. Procedures are mounted Connect-style at
// /<service>/<method>.
const (
	AuthServiceName   = "splitsync.v1.AuthService"
	LedgerServiceName = "splitsync.v1.LedgerService"
)

// handlerOptions prepends the JSON codec so every procedure speaks plain
// JSON over the Connect protocol.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

// NewAuthServiceHandler mounts the auth procedures and returns the path
// prefix to register on a mux.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	prefix := "/" + AuthServiceName + "/"

	mux := http.NewServeMux()
	mux.Handle(prefix+"Register", connect.NewUnaryHandler(prefix+"Register", svc.Register, opts...))
	mux.Handle(prefix+"Login", connect.NewUnaryHandler(prefix+"Login", svc.Login, opts...))
	return prefix, mux
}

// NewLedgerServiceHandler mounts the ledger procedures and returns the path
// prefix to register on a mux.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	prefix := "/" + LedgerServiceName + "/"

	mux := http.NewServeMux()
	mux.Handle(prefix+"CreateTransaction", connect.NewUnaryHandler(prefix+"CreateTransaction", svc.CreateTransaction, opts...))
	mux.Handle(prefix+"UpdateTransaction", connect.NewUnaryHandler(prefix+"UpdateTransaction", svc.UpdateTransaction, opts...))
	mux.Handle(prefix+"DeleteTransaction", connect.NewUnaryHandler(prefix+"DeleteTransaction", svc.DeleteTransaction, opts...))
	mux.Handle(prefix+"GetTransaction", connect.NewUnaryHandler(prefix+"GetTransaction", svc.GetTransaction, opts...))
	mux.Handle(prefix+"ListTransactions", connect.NewUnaryHandler(prefix+"ListTransactions", svc.ListTransactions, opts...))
	mux.Handle(prefix+"FriendBalances", connect.NewUnaryHandler(prefix+"FriendBalances", svc.FriendBalances, opts...))
	mux.Handle(prefix+"MonthlyBalances", connect.NewUnaryHandler(prefix+"MonthlyBalances", svc.MonthlyBalances, opts...))
	mux.Handle(prefix+"AddFriend", connect.NewUnaryHandler(prefix+"AddFriend", svc.AddFriend, opts...))
	mux.Handle(prefix+"ListFriends", connect.NewUnaryHandler(prefix+"ListFriends", svc.ListFriends, opts...))
	return prefix, mux
}
