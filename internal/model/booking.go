package model

import "time"

// Booking mirrors the `bookings` table.  The stored status column can lag
// behind reality: a row with status "active" whose expiry_date has passed is
// effectively expired.  Readers must always combine the column with the
// expiry timestamp instead of trusting it alone.
type Booking struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	PassID       uint64    `json:"pass_id"`
	PurchaseDate time.Time `json:"purchase_date"`
	ExpiryDate   time.Time `json:"expiry_date"`
	Status       string    `json:"status"` // active | expired
}

// BookingDetail is a booking joined with display fields from its pass.  The
// pass may have been deleted after purchase; in that case the string fields
// read "N/A" and Price is zero rather than the row being dropped.
type BookingDetail struct {
	Booking
	Provider string  `json:"provider"`
	Category string  `json:"category"`
	Type     string  `json:"type"`
	Coverage string  `json:"coverage"`
	Price    float64 `json:"price"`
}

// AdminBookingDetail extends BookingDetail with the owning user's identity
// for the admin overview table.
type AdminBookingDetail struct {
	BookingDetail
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
