// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and session token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, random
// identifiers) from the domain logic. The [TokenCodec] is injected into the
// auth service as an issuer and into the middleware chain as a verifier.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Kinds

// TokenKind distinguishes short-lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// ErrInvalidToken is returned for every token that must not be trusted.
//
// Malformed, tampered, expired, and wrong-issuer tokens are not distinguished
// for callers. The wrapped cause is only meant for logs.
var ErrInvalidToken = errors.New("sec: invalid token")

// AuthClaims represents the payload embedded inside a session token.
//
// The subject is the identity's email. The tier is deliberately absent: it is
// authoritative account data and is re-read from storage where it matters.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string    `json:"uid"`
	Kind   TokenKind `json:"knd"`
}

// Email returns the subject email carried by the token.
func (claims *AuthClaims) Email() string {
	return claims.Subject
}

// Subject identifies who a token is issued for.
type Subject struct {
	UserID string
	Email  string
}

// IssuedToken is a signed token together with its expiry.
type IssuedToken struct {
	Value     string
	Kind      TokenKind
	ExpiresAt time.Time
}

// # Codec

// TokenCodec signs and verifies HS256 session tokens with a process-wide secret.
//
// Rotating the secret invalidates every outstanding token.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption customizes a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock replaces the wall clock used for issuing and verifying tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) {
		codec.now = now
	}
}

// NewTokenCodec creates a codec for the given secret and lifetimes.
func NewTokenCodec(secret, issuer string, accessTTL, refreshTTL time.Duration, options ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: token secret must not be empty")
	}

	codec := &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}

	for _, option := range options {
		option(codec)
	}

	return codec, nil
}

// Lifetime returns how long tokens of the given kind stay valid.
func (codec *TokenCodec) Lifetime(kind TokenKind) time.Duration {
	if kind == TokenRefresh {
		return codec.refreshTTL
	}
	return codec.accessTTL
}

/*
Issue signs a new token of the given kind for subject.

Parameters:
  - subject: Subject (email becomes the 'sub' claim)
  - kind: TokenKind

Returns:
  - IssuedToken: Signed value and its expiry
  - error: Unknown kind or signing failures
*/
func (codec *TokenCodec) Issue(subject Subject, kind TokenKind) (IssuedToken, error) {
	if kind != TokenAccess && kind != TokenRefresh {
		return IssuedToken{}, fmt.Errorf("sec: unknown token kind %q", kind)
	}

	currentTime := codec.now()
	expiresAt := currentTime.Add(codec.Lifetime(kind))

	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Email,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: subject.UserID,
		Kind:   kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return IssuedToken{
		Value:     signedToken,
		Kind:      kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

/*
Verify checks the signature, issuer, expiry, and kind of a token string.

Returns:
  - *AuthClaims: The verified claims
  - error: Always wraps [ErrInvalidToken] on failure
*/
func (codec *TokenCodec) Verify(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return codec.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(codec.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if claims.Kind != TokenAccess && claims.Kind != TokenRefresh {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidToken, claims.Kind)
	}

	return claims, nil
}

// VerifyKind verifies a token and additionally requires the given kind.
func (codec *TokenCodec) VerifyKind(tokenString string, kind TokenKind) (*AuthClaims, error) {
	claims, err := codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrInvalidToken, kind, claims.Kind)
	}

	return claims, nil
}
