// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// driver-specific error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email that already
// has an account. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row. For membership-gated
// resources the handlers translate this into 404 whether the resource is
// truly absent or merely invisible to the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot proceed because of
// conflicting state, such as removing the last owner of a workspace.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
