package models

import "time"

const (
	StationTypePool     = "pool"
	StationTypeGaming   = "gaming"
	StationTypeFoosball = "foosball"
)

type Station struct {
	ID              int64     `json:"id"`
	VenueID         int64     `json:"venue_id"`
	Name            string    `json:"name"`
	StationType     string    `json:"station_type"`
	RateSoloHourly  float64   `json:"rate_solo_hourly"`
	RateGroupHourly float64   `json:"rate_group_hourly"`
	IsEnabled       bool      `json:"is_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HourlyRate returns the station's rate for a pricing tier. Station
// types without a group concept carry the same value in both columns.
func (s *Station) HourlyRate(tier string) float64 {
	if tier == TierGroup {
		return s.RateGroupHourly
	}
	return s.RateSoloHourly
}

// StationOverview is a station joined with its live session, if any.
type StationOverview struct {
	Station
	SessionID     *int64  `json:"session_id,omitempty"`
	SessionStatus *string `json:"session_status,omitempty"`
}
