package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/handler"
	"github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/repository"
)

// RegisterOwner registers the owner listing-management endpoints. Every
// route requires a session plus an "owner" role row; admins may also
// manage listings when operating on behalf of owners.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, roles *repository.RoleRepo, jwtSecret string) {
	g := e.Group("/v1/locations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(roles, repository.RoleOwner, repository.RoleAdmin))
	g.POST("", o.CreateLocation)
	g.GET("", o.ListLocations)
	g.GET("/:id", o.GetLocation)
	g.PUT("/:id", o.UpdateLocation)
	g.DELETE("/:id", o.DeleteLocation)
}

// RegisterAdmin registers the approval endpoint. Only the session check
// runs as middleware; the admin role is verified inside the handler
// against the user_roles table so the 400-level validation errors keep
// their documented precedence over 403.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/locations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/:id/approve", a.ApproveLocation)
}

// RegisterRoles registers the self-service role query endpoint.
func RegisterRoles(e *echo.Echo, r *handler.RoleHandler, jwtSecret string) {
	g := e.Group("/v1/roles")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("/me", r.MyRoles)
}
