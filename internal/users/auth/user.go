// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the identity and session layer.

It defines the registered identity, its credential store, and the stateless
session flows built on signed tokens (register, login, refresh, me).

# Architecture

Sessions are not persisted. A login issues an ACCESS and a REFRESH token;
both are verified by signature and expiry alone. The subscription tier is
never part of a token, it is always read from the store.
*/
package auth

import (
	"time"

	"github.com/taibuivan/sonora/internal/platform/sec"
)

// # Domain Entities

// User represents a registered identity of the Sonora platform.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string    `json:"displayName"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Tier         sec.Tier  `json:"tier"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subject returns the token subject for the user.
func (user *User) Subject() sec.Subject {
	return sec.Subject{UserID: user.ID, Email: user.Email}
}

// # Field Identifiers

// Global field names for validation in the authentication domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldDisplayName  = "displayName"
	FieldRefreshToken = "refreshToken"
)
