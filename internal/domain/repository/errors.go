package repository

import "errors"

// ErrNotFound is returned when a title has no stored points, or when the
// store holds no titles at all.
var ErrNotFound = errors.New("series not found")
