package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	Start(ctx context.Context, venueID int64, input services.StartSessionInput) (*models.Session, error)
	Get(ctx context.Context, venueID, sessionID int64) (*models.SessionDetail, error)
	Pause(ctx context.Context, venueID, sessionID int64) (*models.Session, error)
	Resume(ctx context.Context, venueID, sessionID int64) (*models.Session, error)
	Transfer(ctx context.Context, venueID, sessionID int64, input services.TransferInput) (*models.Session, error)
	Close(ctx context.Context, venueID, sessionID int64, input services.CloseInput) (*models.Session, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type startSessionRequest struct {
	StationID   int64   `json:"station_id"`
	PricingTier string  `json:"pricing_tier"`
	StartedAt   *string `json:"started_at"`
}

type transferRequest struct {
	DestinationStationID int64   `json:"destination_station_id"`
	EndingTier           *string `json:"ending_tier"`
	NextTier             *string `json:"next_tier"`
}

type closeRequest struct {
	CurrentSegmentTier *string `json:"current_segment_tier"`
	Overrides          []struct {
		SegmentID   int64  `json:"segment_id"`
		PricingTier string `json:"pricing_tier"`
	} `json:"segment_tier_overrides"`
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req startSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.StationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "station_id is required"})
	}

	input := services.StartSessionInput{
		StationID:   req.StationID,
		PricingTier: req.PricingTier,
	}
	if req.StartedAt != nil {
		startedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.StartedAt))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "started_at must be a valid RFC3339 timestamp"})
		}
		input.StartedAt = &startedAt
	}

	session, err := h.service.Start(c.Context(), venueID, input)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Get(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	detail, err := h.service.Get(c.Context(), venueID, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": detail})
}

func (h *SessionHandler) Pause(c *fiber.Ctx) error {
	return h.transition(c, h.service.Pause)
}

func (h *SessionHandler) Resume(c *fiber.Ctx) error {
	return h.transition(c, h.service.Resume)
}

func (h *SessionHandler) transition(c *fiber.Ctx, op func(context.Context, int64, int64) (*models.Session, error)) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := op(c.Context(), venueID, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Transfer(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.DestinationStationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "destination_station_id is required"})
	}

	session, err := h.service.Transfer(c.Context(), venueID, sessionID, services.TransferInput{
		DestinationStationID: req.DestinationStationID,
		EndingTier:           req.EndingTier,
		NextTier:             req.NextTier,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Close(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req closeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	input := services.CloseInput{CurrentSegmentTier: req.CurrentSegmentTier}
	for _, override := range req.Overrides {
		input.Overrides = append(input.Overrides, services.SegmentTierOverride{
			SegmentID:   override.SegmentID,
			PricingTier: override.PricingTier,
		})
	}

	session, err := h.service.Close(c.Context(), venueID, sessionID, input)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidTier):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStationDisabled),
		errors.Is(err, services.ErrSessionClosed),
		errors.Is(err, services.ErrSameStation),
		errors.Is(err, services.ErrForeignSegment):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Destination station already has an open session"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
