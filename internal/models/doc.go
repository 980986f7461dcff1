// Package models defines the core domain models for the splitsync ledger.
//
// # Model Overview
//
//   - Transaction: an economic event (revenue, personal, or shared cost),
//     with its payers, optional split details, and append-only activity log
//   - DebtEdge: a derived debtor→creditor weight owned by one transaction
//   - FriendBalance: a read-time signed aggregate per counterparty
//   - MonthlyBalance: persisted opening/closing cash position per month
//   - User: a registered account, also the identity collaborator's record
//
// # Design Principles
//
//  1. **Derived data is never hand-written**: DebtEdge and MonthlyBalance
//     rows are produced only by the netting engine and the carry-forward
//     sequence, and can always be rebuilt from the transactions
//  2. **Soft delete only**: transactions carry a tombstone timestamp instead
//     of being removed, so debt provenance stays inspectable
//  3. **Avoid circular references**: models reference each other by ID string
//  4. **Wire shape is the storage shape**: JSON field names match the
//     persisted column names field-for-field, with two-decimal float
//     semantics and a 0.01 epsilon for monetary equality
package models
