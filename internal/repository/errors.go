// Package repository implements persistence over database/sql for
// users, refresh tokens and leases.  Sentinel errors defined here let
// handlers distinguish failure scenarios without inspecting driver
// error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when registration hits the unique email
// index.  Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneExists is returned when registration hits the unique phone
// index.
var ErrPhoneExists = errors.New("phone already exists")

// ErrNotFound is returned when a lookup matches no row.  It wraps the
// semantics of sql.ErrNoRows without leaking the database/sql
// dependency into callers.
var ErrNotFound = errors.New("not found")
