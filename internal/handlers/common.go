package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

var errMissingVenue = errors.New("missing venue claim")

func parseVenueID(c *fiber.Ctx) (int64, error) {
	raw, ok := c.Locals("venue_id").(string)
	if !ok || raw == "" {
		return 0, errMissingVenue
	}
	venueID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || venueID <= 0 {
		return 0, errMissingVenue
	}
	return venueID, nil
}
