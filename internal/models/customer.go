package models

import "time"

// Customer tracks cumulative play time per phone number for the
// loyalty discount. Phone is stored in canonical digit form.
type Customer struct {
	ID                  int64     `json:"id"`
	VenueID             int64     `json:"venue_id"`
	Phone               string    `json:"phone"`
	TotalSeconds        int64     `json:"total_seconds"`
	IsDiscountAvailable bool      `json:"is_discount_available"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
