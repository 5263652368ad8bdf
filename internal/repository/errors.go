// Package repository defines error values reused across repositories.
// These sentinels let handlers distinguish failure scenarios without
// string matching: ErrLocationNotFound maps to 404, ErrForbidden to 403.
package repository

import "errors"

// ErrLocationNotFound is returned when a parking location cannot be found,
// and also, for approved-only lookups, when it exists but is not approved.
// Callers deliberately cannot tell those cases apart, so unapproved
// listings stay undiscoverable through public endpoints.
var ErrLocationNotFound = errors.New("location not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
