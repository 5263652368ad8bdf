package handler // owner-facing handlers for managing parking location listings

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

// OwnerHandler bundles the repositories owners need to manage their
// listings.
type OwnerHandler struct {
	Locations *repository.LocationRepo
}

// NewOwnerHandler constructs an OwnerHandler and panics if the repository
// is nil; wiring bugs should fail at startup, not on first request.
func NewOwnerHandler(locations *repository.LocationRepo) *OwnerHandler {
	if locations == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{Locations: locations}
}

// locationReq is the owner-supplied portion of a listing. Approval fields
// are absent on purpose: owners cannot touch them.
type locationReq struct {
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
	AvailableSlots        *int            `json:"available_slots"`
	PricingMode           string          `json:"pricing_mode"`
	BasePricePerHourPaise int64           `json:"base_price_per_hour_paise"`
	SlabPricing           json.RawMessage `json:"slab_pricing"`
}

// validate normalises the request and reports the first problem as a
// human-readable message. AvailableSlots defaults to TotalSlots when
// omitted and is clamped into [0, TotalSlots] so the invariant
// 0 <= available <= total holds for every owner write.
func (r *locationReq) validate() (string, bool) {
	r.Title = strings.TrimSpace(r.Title)
	r.City = strings.TrimSpace(r.City)
	if r.Title == "" {
		return "title is required", false
	}
	if r.Address == "" || r.City == "" {
		return "address and city are required", false
	}
	if r.TotalSlots < 0 {
		return "total_slots must be >= 0", false
	}
	if r.BasePricePerHourPaise < 0 {
		return "base_price_per_hour_paise must be >= 0", false
	}
	if r.PricingMode == "" {
		r.PricingMode = repository.PricingModeHourly
	}
	if r.AvailableSlots == nil {
		n := r.TotalSlots
		r.AvailableSlots = &n
	}
	if *r.AvailableSlots < 0 {
		*r.AvailableSlots = 0
	}
	if *r.AvailableSlots > r.TotalSlots {
		*r.AvailableSlots = r.TotalSlots
	}
	return "", true
}

func (r *locationReq) toModel() *repository.ParkingLocation {
	return &repository.ParkingLocation{
		Title:                 r.Title,
		Description:           r.Description,
		Address:               r.Address,
		City:                  r.City,
		State:                 r.State,
		Pincode:               r.Pincode,
		Latitude:              r.Latitude,
		Longitude:             r.Longitude,
		Photos:                r.Photos,
		TotalSlots:            r.TotalSlots,
		AvailableSlots:        *r.AvailableSlots,
		PricingMode:           r.PricingMode,
		BasePricePerHourPaise: r.BasePricePerHourPaise,
		SlabPricing:           r.SlabPricing,
	}
}

// CreateLocation handles POST /v1/locations. New listings always start
// unapproved and stay invisible to the public until an admin approves
// them.
func (h *OwnerHandler) CreateLocation(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	loc := req.toModel()
	loc.OwnerUserID = ownerID
	if err := h.Locations.Create(c.Request().Context(), loc); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create location"})
	}
	return c.JSON(http.StatusCreated, loc)
}

// ListLocations handles GET /v1/locations and returns all listings owned
// by the caller, approved or not.
func (h *OwnerHandler) ListLocations(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Locations.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetLocation handles GET /v1/locations/:id for the owning user. Listings
// owned by someone else look exactly like missing ones.
func (h *OwnerHandler) GetLocation(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id", "INVALID_ID")
	}
	loc, err := h.Locations.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if err == repository.ErrLocationNotFound {
			return jsonError(c, http.StatusNotFound, "location not found", "LOCATION_NOT_FOUND")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, loc)
}

// UpdateLocation handles PUT /v1/locations/:id. Owner edits rewrite the
// descriptive, capacity and pricing fields; approval state is not
// affected.
func (h *OwnerHandler) UpdateLocation(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id", "INVALID_ID")
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	loc := req.toModel()
	loc.ID = id
	if err := h.Locations.UpdateByIDAndOwner(c.Request().Context(), loc, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return jsonError(c, http.StatusNotFound, "location not found", "LOCATION_NOT_FOUND")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Locations.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteLocation handles DELETE /v1/locations/:id.
func (h *OwnerHandler) DeleteLocation(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id", "INVALID_ID")
	}
	if err := h.Locations.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		switch err {
		case sql.ErrNoRows:
			return jsonError(c, http.StatusNotFound, "location not found", "LOCATION_NOT_FOUND")
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
