package model

import "time"

// User mirrors the `users` table.  The password hash is never serialized;
// handlers return User values directly in auth and admin responses.
//
// WalletBalance is the stored-value balance used as the sole payment
// instrument.  It is mutated only by the ledger's debit/credit statements,
// never assigned directly.
type User struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Phone         *string   `json:"phone"`
	WalletBalance float64   `json:"wallet_balance"`
	Role          string    `json:"role"` // "user" or "admin"
	CreatedAt     time.Time `json:"created_at"`
}
