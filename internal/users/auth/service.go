// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/ctxutil"
	"github.com/taibuivan/sonora/internal/platform/sec"
	"github.com/taibuivan/sonora/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for issuing and verifying session tokens.
type TokenIssuer interface {
	Issue(subject sec.Subject, kind sec.TokenKind) (sec.IssuedToken, error)
	VerifyKind(tokenString string, kind sec.TokenKind) (*sec.AuthClaims, error)
}

// Service implements identity use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenIssuer    TokenIssuer
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo UserRepository, tokens TokenIssuer) *Service {
	return &Service{
		userRepository: userRepo,
		tokenIssuer:    tokens,
	}
}

// Session is the token pair handed to a client after register, login, or refresh.
type Session struct {
	AccessToken  sec.IssuedToken
	RefreshToken sec.IssuedToken
	User         *User
}

// normalizeEmail makes lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issueSession signs a fresh ACCESS and REFRESH token for user.
func (service *Service) issueSession(user *User) (*Session, error) {
	access, err := service.tokenIssuer.Issue(user.Subject(), sec.TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refresh, err := service.tokenIssuer.Issue(user.Subject(), sec.TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &Session{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new identity.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new identity.

Every new identity starts on the STANDARD tier. A session is issued right
away so the client does not need a second round-trip to log in.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Session: Token pair and created entity
  - error: Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Session, error) {
	email := normalizeEmail(input.Email)

	// Client-safe conflict before paying for the bcrypt hash
	if _, err := service.userRepository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  displayName,
		Tier:         sec.TierStandard,
	}

	// The unique index still wins a race between two registrations
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	ctxutil.GetLogger(context).Info("identity_registered", slog.String("user_id", user.ID))

	return service.issueSession(user)
}

// # Authentication Flow

/*
Login validates credentials and issues a token pair.

Unknown emails and wrong passwords produce the same INVALID_CREDENTIALS
error, and both pay for one bcrypt comparison.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *Session: Token pair and identity
  - error: InvalidCredentials or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*Session, error) {
	logger := ctxutil.GetLogger(context)

	user, err := service.userRepository.FindByEmail(context, normalizeEmail(email))
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
		}
		sec.BurnPasswordCheck(password)
		logger.Info("login_failed", slog.String("reason", "unknown_email"))
		return nil, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		logger.Info("login_failed", slog.String("reason", "bad_password"), slog.String("user_id", user.ID))
		return nil, apperr.InvalidCredentials()
	}

	return service.issueSession(user)
}

/*
Refresh exchanges a valid REFRESH token for a new token pair.

The identity is re-read so that a deleted account cannot keep refreshing.
The presented refresh token is not revoked and remains valid until expiry.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Session: New token pair
  - error: InvalidToken or internal failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*Session, error) {
	logger := ctxutil.GetLogger(context)

	claims, err := service.tokenIssuer.VerifyKind(refreshToken, sec.TokenRefresh)
	if err != nil {
		logger.Warn("token_rejected", slog.String("reason", err.Error()))
		return nil, apperr.InvalidToken()
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			logger.Warn("token_rejected", slog.String("reason", "identity_missing"), slog.String("user_id", claims.UserID))
			return nil, apperr.InvalidToken()
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	return service.issueSession(user)
}

/*
Me returns the identity behind a verified access token.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Current identity
  - error: InvalidToken if the identity no longer exists
*/
func (service *Service) Me(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.InvalidToken()
		}
		return nil, fmt.Errorf("auth_service_me_failed: %w", err)
	}
	return user, nil
}

/*
Logout ends the client session.

Tokens are stateless and there is no revocation list, so this is a no-op on
the server: the access token stays valid until its expiry. Clients must drop
both tokens.
*/
func (service *Service) Logout(context context.Context, userID string) {
	ctxutil.GetLogger(context).Info("identity_logged_out", slog.String("user_id", userID))
}
