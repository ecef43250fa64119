// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrReservationNotFound is returned when no reservation matches the
// requested spot and email. Handlers should translate this into an
// HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as purchasing a second pass of the same kind for
// one email. Handlers should translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate record")
