package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/repository"
	"github.com/mudasirkk/Tabbd-sub000/pkg/utils"
)

// LoyaltyService guards the cumulative-play discount. It is
// independent of session state; the redemption itself is a single
// conditional update, so two checkouts racing on one phone number can
// never both redeem.
type LoyaltyService struct {
	customers *repository.CustomerRepository
	threshold int64
}

func NewLoyaltyService(customers *repository.CustomerRepository, thresholdSeconds int64) *LoyaltyService {
	return &LoyaltyService{customers: customers, threshold: thresholdSeconds}
}

type EligibilityResult struct {
	Phone            string `json:"phone"`
	Eligible         bool   `json:"eligible"`
	TotalSeconds     int64  `json:"total_seconds"`
	ThresholdSeconds int64  `json:"threshold_seconds"`
}

// CheckEligible reports whether adding secondsToAdd would qualify the
// customer. Read-only, safe to call on every checkout screen render.
// An unknown phone counts as zero accumulated seconds.
func (s *LoyaltyService) CheckEligible(ctx context.Context, venueID int64, rawPhone string, secondsToAdd int64) (*EligibilityResult, error) {
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	if secondsToAdd < 0 {
		return nil, ErrInvalidInput
	}

	var total int64
	available := false
	customer, err := s.customers.GetByPhone(ctx, venueID, phone)
	if err == nil {
		total = customer.TotalSeconds
		available = customer.IsDiscountAvailable
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return &EligibilityResult{
		Phone:            phone,
		Eligible:         available || total+secondsToAdd >= s.threshold,
		TotalSeconds:     total,
		ThresholdSeconds: s.threshold,
	}, nil
}

// ApplyDiscount redeems one discount. The eligibility re-check and the
// balance rewrite happen in the same conditional statement; when a
// concurrent redemption got there first, the update matches zero rows
// and the caller sees a conflict, never a partial write.
func (s *LoyaltyService) ApplyDiscount(ctx context.Context, venueID int64, rawPhone string, secondsToAdd int64) (*models.Customer, error) {
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	if secondsToAdd < 0 {
		return nil, ErrInvalidInput
	}

	if err := s.customers.EnsureExists(ctx, venueID, phone); err != nil {
		return nil, err
	}

	customer, err := s.customers.ApplyDiscount(ctx, venueID, phone, secondsToAdd, s.threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return customer, nil
}

// AddSeconds accumulates play time after a non-discounted checkout.
func (s *LoyaltyService) AddSeconds(ctx context.Context, venueID int64, rawPhone string, seconds int64) (*models.Customer, error) {
	phone, err := utils.NormalizePhone(rawPhone)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	if seconds < 0 {
		return nil, ErrInvalidInput
	}
	return s.customers.AddSeconds(ctx, venueID, phone, seconds, s.threshold)
}
