package models

import "time"

const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

const (
	TierSolo  = "solo"
	TierGroup = "group"
)

// Session is the mutable "current interval" record. Everything before
// the current interval lives in session_time_segments; started_at,
// paused_at and total_paused_seconds always describe the open interval
// on the current station only.
type Session struct {
	ID                 int64      `json:"id"`
	VenueID            int64      `json:"venue_id"`
	StationID          int64      `json:"station_id"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	PausedAt           *time.Time `json:"paused_at"`
	TotalPausedSeconds int64      `json:"total_paused_seconds"`
	PricingTier        string     `json:"pricing_tier"`
	RateHourlySnapshot float64    `json:"rate_hourly_snapshot"`
	ClosedAt           *time.Time `json:"closed_at"`
	TotalAmount        *float64   `json:"total_amount"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SessionTimeSegment is one closed leg of a session's timeline: the
// stretch spent on a single station. Rows are immutable once written,
// except that checkout may re-select which of the two stored rate
// snapshots applies.
type SessionTimeSegment struct {
	ID                int64     `json:"id"`
	SessionID         int64     `json:"session_id"`
	Sequence          int       `json:"sequence"`
	StationID         int64     `json:"station_id"`
	StationName       string    `json:"station_name"`
	StationType       string    `json:"station_type"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
	EffectiveSeconds  int64     `json:"effective_seconds"`
	PricingTier       string    `json:"pricing_tier"`
	RateSoloSnapshot  float64   `json:"rate_solo_snapshot"`
	RateGroupSnapshot float64   `json:"rate_group_snapshot"`
	RateHourlyApplied float64   `json:"rate_hourly_applied"`
	TimeAmount        float64   `json:"time_amount"`
	CreatedAt         time.Time `json:"created_at"`
}

// SessionDetail bundles a session with its ledger, tab and the charge
// figures computed for display. CurrentCharge covers the still-open
// interval; RunningTotal adds the recorded segments.
type SessionDetail struct {
	Session
	Segments      []SessionTimeSegment `json:"segments"`
	Items         []SessionItem        `json:"items"`
	CurrentCharge float64              `json:"current_charge"`
	RunningTotal  float64              `json:"running_total"`
	ItemsSubtotal float64              `json:"items_subtotal"`
}
