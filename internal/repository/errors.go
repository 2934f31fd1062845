// Package repository persists accounts and roles behind database/sql.
// Sentinel errors let the identity service distinguish uniqueness
// collisions, the one failure mode it must surface as a Conflict, from
// plain infrastructure errors.
package repository

import "errors"

// ErrDuplicate is returned when an insert violates a unique constraint on
// email or username. The constraint is the authoritative collision signal;
// pre-checks in the service layer are advisory only.
var ErrDuplicate = errors.New("duplicate entry")

// ErrNotFound is returned when a lookup that requires existence finds
// nothing.
var ErrNotFound = errors.New("not found")
