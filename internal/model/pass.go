package model

import "time"

// Pass mirrors the `passes` table: a purchasable transport entitlement.
// Price and ValidityDays are read at purchase/renewal time; bookings do not
// snapshot them, so an admin edit changes what a later renewal costs.
type Pass struct {
	ID           uint64    `json:"id"`
	Provider     string    `json:"provider"`
	Category     string    `json:"category"` // bus | train | flight
	Type         string    `json:"type"`     // daily | weekly | monthly | ...
	Price        float64   `json:"price"`
	ValidityDays int       `json:"validity_days"`
	Coverage     *string   `json:"coverage"`
	LogoURL      *string   `json:"logo_url"`
	CreatedAt    time.Time `json:"created_at"`
}
