package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

// RoleHandler exposes read access to the caller's own role grants.
type RoleHandler struct {
	Roles *repository.RoleRepo
}

func NewRoleHandler(roles *repository.RoleRepo) *RoleHandler {
	if roles == nil {
		panic("nil repository passed to NewRoleHandler")
	}
	return &RoleHandler{Roles: roles}
}

// MyRoles handles GET /v1/roles/me and returns the caller's role names in
// table scan order. A user with no grants gets an empty array, not an
// error; holding zero roles is a valid account state.
func (h *RoleHandler) MyRoles(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roles, err := h.Roles.ListByUser(c.Request().Context(), uid)
	if err != nil {
		log.Printf("roles/me: list roles for user %d failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": roles})
}
