package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/services"
)

type TabHandler struct {
	service tabApplicationService
}

type tabApplicationService interface {
	AddItem(ctx context.Context, venueID, sessionID, menuItemID int64, qty int) (*models.SessionItem, error)
	RemoveQty(ctx context.Context, venueID, sessionID, menuItemID int64, qty int) (int, error)
	ListMenu(ctx context.Context, venueID int64) ([]models.MenuItem, error)
}

func NewTabHandler(service *services.TabService) *TabHandler {
	return &TabHandler{service: service}
}

type addItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

func (h *TabHandler) AddItem(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.MenuItemID <= 0 || req.Quantity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "menu_item_id and a positive quantity are required"})
	}

	item, err := h.service.AddItem(c.Context(), venueID, sessionID, req.MenuItemID, req.Quantity)
	if err != nil {
		return mapTabError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item": item})
}

func (h *TabHandler) RemoveItem(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	menuItemID, err := strconv.ParseInt(c.Params("menuItemId"), 10, 64)
	if err != nil || menuItemID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid menu item id"})
	}

	qty := 1
	if raw := c.Query("qty"); raw != "" {
		qty, err = strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "qty must be a positive integer"})
		}
	}

	removed, err := h.service.RemoveQty(c.Context(), venueID, sessionID, menuItemID, qty)
	if err != nil {
		return mapTabError(c, err)
	}

	return c.JSON(fiber.Map{"removed": removed})
}

func (h *TabHandler) ListMenu(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	items, err := h.service.ListMenu(c.Context(), venueID)
	if err != nil {
		return mapTabError(c, err)
	}

	return c.JSON(fiber.Map{"menu_items": items})
}

func mapTabError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionClosed),
		errors.Is(err, services.ErrItemInactive),
		errors.Is(err, services.ErrInsufficientStock):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process tab request"})
	}
}
