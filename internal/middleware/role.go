package middleware // middleware provides shared request processing for handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

// RequireRole returns a middleware that enforces that the authenticated
// user holds at least one of the named roles in the user_roles table.  It
// assumes JWTAuth already ran and stored the user id in the context; a
// missing id is treated as an authentication failure (401), a missing role
// row as an authorization failure (403).  Because the check hits the
// store on every request, role grants and revocations apply immediately.
func RequireRole(roles *repository.RoleRepo, names ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := contextUserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			for _, name := range names {
				has, err := roles.HasRole(c.Request().Context(), uid, name)
				if err != nil {
					log.Printf("role check failed for user %d: %v", uid, err)
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "role check failed"})
				}
				if has {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}

// contextUserID normalises the user_id context value to uint64.  JWT
// numeric claims arrive as float64; tests may set native integer types.
func contextUserID(c echo.Context) (uint64, bool) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, true
	case int:
		return uint64(t), true
	case int64:
		return uint64(t), true
	case float64:
		return uint64(t), true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
