// This file defines handlers for the public browsing API. These routes let
// unauthenticated visitors discover approved parking locations and check
// slot availability. Owner identity and approval metadata are filtered
// from every response, and unapproved listings are indistinguishable from
// nonexistent ones.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated
// browsing. It produces sanitized responses suitable for public
// consumption.
type PublicHandler struct {
	Locations *repository.LocationRepo
}

func NewPublicHandler(locations *repository.LocationRepo) *PublicHandler {
	if locations == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Locations: locations}
}

// PublicLocation is a parking location as exposed via the public API.
// It contains only safe fields.
type PublicLocation struct {
	ID                    uint64          `json:"id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Address               string          `json:"address"`
	City                  string          `json:"city"`
	State                 string          `json:"state"`
	Pincode               string          `json:"pincode"`
	Latitude              float64         `json:"latitude"`
	Longitude             float64         `json:"longitude"`
	Photos                []string        `json:"photos"`
	TotalSlots            int             `json:"total_slots"`
	AvailableSlots        int             `json:"available_slots"`
	PricingMode           string          `json:"pricing_mode"`
	BasePricePerHourPaise int64           `json:"base_price_per_hour_paise"`
	SlabPricing           json.RawMessage `json:"slab_pricing,omitempty"`
}

// availabilityResp is deliberately minimal: a public caller gets the free
// slot count and its freshness timestamp, nothing else.
type availabilityResp struct {
	AvailableSlots int       `json:"available_slots"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPublicLocation(l *repository.ParkingLocation) PublicLocation {
	return PublicLocation{
		ID:                    l.ID,
		Title:                 l.Title,
		Description:           l.Description,
		Address:               l.Address,
		City:                  l.City,
		State:                 l.State,
		Pincode:               l.Pincode,
		Latitude:              l.Latitude,
		Longitude:             l.Longitude,
		Photos:                l.Photos,
		TotalSlots:            l.TotalSlots,
		AvailableSlots:        l.AvailableSlots,
		PricingMode:           l.PricingMode,
		BasePricePerHourPaise: l.BasePricePerHourPaise,
		SlabPricing:           l.SlabPricing,
	}
}

// ListLocations handles GET /v1/parking and returns all approved
// locations, optionally filtered with ?city=.
func (h *PublicHandler) ListLocations(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))
	items, err := h.Locations.ListApproved(c.Request().Context(), city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]PublicLocation, 0, len(items))
	for _, l := range items {
		out = append(out, toPublicLocation(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetLocation handles GET /v1/parking/:id. Only approved listings are
// served; everything else is a uniform 404.
func (h *PublicHandler) GetLocation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id", "INVALID_ID")
	}
	l, err := h.Locations.GetByIDApproved(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrLocationNotFound {
			return jsonError(c, http.StatusNotFound, "location not found", "LOCATION_NOT_FOUND")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toPublicLocation(l))
}

// GetAvailability handles GET /v1/locations/:id/availability. No
// authentication required; this is the read reservation front-ends poll.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id", "INVALID_ID")
	}
	slots, updatedAt, err := h.Locations.Availability(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrLocationNotFound {
			return jsonError(c, http.StatusNotFound, "location not found", "LOCATION_NOT_FOUND")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, availabilityResp{AvailableSlots: slots, UpdatedAt: updatedAt})
}
