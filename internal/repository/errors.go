// Package repository is the persistence boundary of the services.  It reads
// and writes whole documents in named MongoDB collections and leaves field
// completeness, hashing and identifier mapping to its callers.
package repository

import "errors"

// ErrInvalidID is returned when a value cannot be turned into the storage
// engine's native ObjectID.  Handlers should translate this into a
// validation failure.
var ErrInvalidID = errors.New("invalid object id")
