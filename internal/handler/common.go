package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id stored by the JWT middleware and converts
// it to uint64. JWT numeric claims decode as float64; tests and other
// middleware may store native integer types.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// jsonError writes the error envelope used across the API. The code is a
// machine-readable constant (e.g. INVALID_ID) and is omitted when empty.
func jsonError(c echo.Context, status int, msg, code string) error {
	body := echo.Map{"error": msg}
	if code != "" {
		body["code"] = code
	}
	return c.JSON(status, body)
}

// parseID parses a path parameter that must be a positive integer id.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
