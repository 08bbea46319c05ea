package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/services"
)

type LoyaltyHandler struct {
	service loyaltyApplicationService
}

type loyaltyApplicationService interface {
	CheckEligible(ctx context.Context, venueID int64, phone string, secondsToAdd int64) (*services.EligibilityResult, error)
	ApplyDiscount(ctx context.Context, venueID int64, phone string, secondsToAdd int64) (*models.Customer, error)
	AddSeconds(ctx context.Context, venueID int64, phone string, seconds int64) (*models.Customer, error)
}

func NewLoyaltyHandler(service *services.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{service: service}
}

type loyaltyRequest struct {
	Phone   string `json:"phone"`
	Seconds int64  `json:"seconds"`
}

func (h *LoyaltyHandler) Check(c *fiber.Ctx) error {
	venueID, req, ok := h.parse(c)
	if !ok {
		return nil
	}

	result, err := h.service.CheckEligible(c.Context(), venueID, req.Phone, req.Seconds)
	if err != nil {
		return mapLoyaltyError(c, err)
	}

	return c.JSON(fiber.Map{"eligibility": result})
}

func (h *LoyaltyHandler) Apply(c *fiber.Ctx) error {
	venueID, req, ok := h.parse(c)
	if !ok {
		return nil
	}

	customer, err := h.service.ApplyDiscount(c.Context(), venueID, req.Phone, req.Seconds)
	if err != nil {
		return mapLoyaltyError(c, err)
	}

	return c.JSON(fiber.Map{"customer": customer})
}

func (h *LoyaltyHandler) AddSeconds(c *fiber.Ctx) error {
	venueID, req, ok := h.parse(c)
	if !ok {
		return nil
	}

	customer, err := h.service.AddSeconds(c.Context(), venueID, req.Phone, req.Seconds)
	if err != nil {
		return mapLoyaltyError(c, err)
	}

	return c.JSON(fiber.Map{"customer": customer})
}

// parse writes the error response itself and reports ok=false when the
// request cannot proceed.
func (h *LoyaltyHandler) parse(c *fiber.Ctx) (int64, *loyaltyRequest, bool) {
	venueID, err := parseVenueID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, nil, false
	}

	var req loyaltyRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		return 0, nil, false
	}
	if req.Phone == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "phone is required"})
		return 0, nil, false
	}

	return venueID, &req, true
}

func mapLoyaltyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidPhone), errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Discount is no longer available"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process loyalty request"})
	}
}
