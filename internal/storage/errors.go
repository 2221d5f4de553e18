// ABOUTME: Common storage errors
// ABOUTME: Enables consistent error handling across storage callers

package storage

import "errors"

// ErrNotFound is returned when a requested run is not cached.
var ErrNotFound = errors.New("not found")
