// Package uuid generates time-ordered identifiers for database primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7 string. UUIDv7 is time-ordered, so rows sort
// roughly by creation time even under concurrent inserts.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is exhausted; fall back
		// to a v4 so callers never observe an empty key.
		return googleuuid.NewString()
	}
	return id.String()
}

// Parse validates a UUID string, returning an error for malformed input.
func Parse(s string) error {
	_, err := googleuuid.Parse(s)
	return err
}
