package services

import (
	"math"
	"time"
)

// EffectiveSeconds returns the billable seconds of an interval: gross
// elapsed time floored to whole seconds, minus time spent paused,
// never negative.
func EffectiveSeconds(startedAt, referenceEnd time.Time, totalPausedSeconds int64) int64 {
	gross := int64(math.Floor(referenceEnd.Sub(startedAt).Seconds()))
	if gross < 0 {
		gross = 0
	}
	effective := gross - totalPausedSeconds
	if effective < 0 {
		effective = 0
	}
	return effective
}

// TimeCharge converts billable seconds at an hourly rate into an
// unrounded amount. Rounding to currency precision happens only at
// persistence and display boundaries, after summation.
func TimeCharge(effectiveSeconds int64, hourlyRate float64) float64 {
	return float64(effectiveSeconds) / 3600 * hourlyRate
}

// ReferenceEnd picks the instant an open interval is measured against:
// the pause instant while paused, otherwise now.
func ReferenceEnd(pausedAt *time.Time, now time.Time) time.Time {
	if pausedAt != nil {
		return *pausedAt
	}
	return now
}

// RoundCurrency rounds an amount to cents.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
