package model

import "time"

// Transaction mirrors the `transactions` table.  Rows are append-only
// ledger entries: created exactly once alongside the wallet mutation they
// record, never updated, deleted only when their user is deleted.
type Transaction struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	Type            string    `json:"transaction_type"` // topup | purchase | renewal
	Amount          float64   `json:"amount"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	TransactionDate time.Time `json:"transaction_date"`
}

// AdminTransaction extends Transaction with the owning user's identity for
// the admin ledger view.
type AdminTransaction struct {
	Transaction
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
