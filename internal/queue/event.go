// Package queue defines message payloads exchanged over the message broker.
package queue

// Ledger event types mirror the transaction_type column.
const (
	EventPurchase = "purchase"
	EventRenewal  = "renewal"
	EventTopUp    = "topup"
)

// LedgerEvent is published after a wallet-affecting transaction commits.
// It contains enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.  Publishing is
// best effort: the committed database state, not the event stream, is the
// source of truth.
type LedgerEvent struct {
	Type          string  `json:"type"` // purchase | renewal | topup
	UserID        uint64  `json:"user_id"`
	BookingID     uint64  `json:"booking_id,omitempty"`
	TransactionID uint64  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	OccurredAt    string  `json:"occurred_at"`
}
