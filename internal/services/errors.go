package services

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTier       = errors.New("invalid pricing tier")
	ErrStationDisabled   = errors.New("station is disabled")
	ErrSessionClosed     = errors.New("session is closed")
	ErrSameStation       = errors.New("destination matches current station")
	ErrConflict          = errors.New("conflict")
	ErrItemInactive      = errors.New("menu item is inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrForeignSegment    = errors.New("segment does not belong to session")
	ErrInvalidPhone      = errors.New("invalid phone number")
)
