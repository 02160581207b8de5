// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates and checks the identifiers used as primary keys.

Identities and songs are keyed by UUIDv7 values: time-sortable, so new rows
land at the end of the B-tree index. Songs imported from older catalogs may
still carry UUIDv4 keys, which [Valid] accepts as well.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// # Validation

// Valid reports whether s is a canonical, hyphenated version 4 or 7 UUID.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}

	switch id.Version() {
	case 4, 7:
		return id.Variant() == uuid.RFC4122
	default:
		return false
	}
}
