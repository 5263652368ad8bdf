package handler // admin-facing handlers for listing approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/queue"
	"github.com/iliyamo/parking-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/parking-reservation/internal/service"
)

// AdminHandler bundles the repositories needed for approval decisions.
// The role repository is consulted inside the handler rather than in
// route middleware: approval is the one operation where the admin grant
// must come from the user_roles table at the moment of the call.
type AdminHandler struct {
	Locations *repository.LocationRepo
	Roles     *repository.RoleRepo
}

func NewAdminHandler(locations *repository.LocationRepo, roles *repository.RoleRepo) *AdminHandler {
	if locations == nil || roles == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Locations: locations, Roles: roles}
}

// approveReq carries the approve flag as raw JSON so the handler can tell
// "not a boolean" apart from "false". Binding into a plain bool would
// accept 1/"true" via loose coercion in some clients and silently default
// a missing field.
type approveReq struct {
	Approve json.RawMessage `json:"approve"`
}

// ApproveLocation handles POST /v1/locations/:id/approve. It flips a
// listing's public visibility: approve=true records who approved and
// when, approve=false clears both. The response is the full updated row.
//
// The existence check and the update are two separate statements. If the
// row vanishes between them the update affects zero rows and the client
// gets 500 UPDATE_FAILED; the window is accepted and surfaced rather than
// closed with a transaction.
func (h *AdminHandler) ApproveLocation(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id", "INVALID_ID")
	}

	var req approveReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "approve must be a boolean", "INVALID_APPROVE_FIELD")
	}
	// json.Unmarshal treats null as a no-op for bool targets, so match the
	// two literals instead: anything but true/false is rejected.
	var approve bool
	switch strings.TrimSpace(string(req.Approve)) {
	case "true":
		approve = true
	case "false":
		approve = false
	default:
		return jsonError(c, http.StatusBadRequest, "approve must be a boolean", "INVALID_APPROVE_FIELD")
	}

	ctx := c.Request().Context()

	isAdmin, err := h.Roles.HasRole(ctx, adminID, repository.RoleAdmin)
	if err != nil {
		log.Printf("approve: role check failed for user %d: %v", adminID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role check failed: " + err.Error()})
	}
	if !isAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if _, err := h.Locations.GetByID(ctx, id); err != nil {
		if err == repository.ErrLocationNotFound {
			return jsonError(c, http.StatusNotFound, "location not found", "LOCATION_NOT_FOUND")
		}
		log.Printf("approve: load location %d failed: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error: " + err.Error()})
	}

	change := repository.ApprovalChange{Approve: approve}
	if approve {
		change.AdminID = adminID
		change.At = time.Now().UTC()
	}
	if err := h.Locations.SetApproval(ctx, id, change); err != nil {
		log.Printf("approve: update location %d failed: %v", id, err)
		if err == sql.ErrNoRows {
			return jsonError(c, http.StatusInternalServerError, "location update affected no rows", "UPDATE_FAILED")
		}
		return jsonError(c, http.StatusInternalServerError, "update failed: "+err.Error(), "UPDATE_FAILED")
	}

	updated, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		log.Printf("approve: reload location %d failed: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error: " + err.Error()})
	}

	// Fire the approval event; a broker outage must not fail the request.
	ev := queue.LocationApprovedEvent{
		LocationID: updated.ID,
		Title:      updated.Title,
		City:       updated.City,
		OwnerID:    updated.OwnerUserID,
		AdminID:    adminID,
		Approved:   approve,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		// Detached from the request context: the response does not wait
		// for the broker.
		_ = queue_publisher.PublishLocationApproved(context.Background(), ev)
	}()

	return c.JSON(http.StatusOK, updated)
}
