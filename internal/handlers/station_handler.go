package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mudasirkk/Tabbd-sub000/internal/cache"
	"github.com/mudasirkk/Tabbd-sub000/internal/repository"
)

// StationHandler serves the read-only station directory. Station CRUD
// lives outside this service.
type StationHandler struct {
	stations *repository.StationRepository
	board    *cache.LiveBoard
}

func NewStationHandler(stations *repository.StationRepository, board *cache.LiveBoard) *StationHandler {
	return &StationHandler{stations: stations, board: board}
}

func (h *StationHandler) List(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	stations, err := h.stations.ListWithOccupancy(c.Context(), venueID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load stations"})
	}

	return c.JSON(fiber.Map{"stations": stations})
}

// LiveBoard returns the cached active-session board. The cache is a
// best-effort read model; when redis is absent or unreachable the
// board is simply empty and clients fall back to the station list.
func (h *StationHandler) LiveBoard(c *fiber.Ctx) error {
	venueID, err := parseVenueID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	entries := make([]cache.ActiveSession, 0)
	if h.board != nil {
		if cached, err := h.board.List(c.Context(), venueID); err == nil {
			entries = cached
		}
	}

	return c.JSON(fiber.Map{"active_sessions": entries})
}
