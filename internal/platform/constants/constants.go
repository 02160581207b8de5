// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, security identifiers, and cross-cutting keys that are
shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Security: JWT issuer and download grant sizing.
  - Transport: Header names and download response headers.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "sonora-api"
	AppVersion = "0.1.0-dev"

	// APIPrefix is the versioned mount point of every domain route.
	APIPrefix = "/api/v1"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Audio downloads are proxied through the server, so this is wider than a JSON API needs.
	DefaultWriteTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for JSON request lifecycles.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "sonora.app"

	// TokenTypeBearer is the scheme returned alongside issued tokens.
	TokenTypeBearer = "Bearer"

	// MinJWTSecretLength is the minimum HS256 key size accepted at startup.
	MinJWTSecretLength = 32
)

// # Download Grants

const (
	// GrantIDBytes is the amount of entropy in a grant identifier.
	GrantIDBytes = 32

	// GrantIssueAttempts bounds retries when a generated grant id collides.
	GrantIssueAttempts = 3

	// DefaultAssetSizeBytes is reported when a song has no recorded file size.
	DefaultAssetSizeBytes int64 = 5 * 1024 * 1024

	// SweepBatchSize is the maximum number of grants removed per delete statement.
	SweepBatchSize = 500

	// SweepBatchesPerSecond paces consecutive sweep batches.
	SweepBatchesPerSecond = 20
)

// # HTTP Headers

const (
	HeaderXRequestID         = "X-Request-ID"
	HeaderXRealIP            = "X-Real-IP"
	HeaderXForwardedFor      = "X-Forwarded-For"
	HeaderAuthorization      = "Authorization"
	HeaderContentDisposition = "Content-Disposition"
	HeaderCacheControl       = "Cache-Control"
	HeaderPragma             = "Pragma"
	HeaderExpires            = "Expires"
	HeaderContentTypeOptions = "X-Content-Type-Options"

	// NoStoreCacheControl forbids any cache from keeping a redeemed asset.
	NoStoreCacheControl = "no-cache, no-store, must-revalidate"

	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeAudioMPEG   = "audio/mpeg"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers    = "users"
	SchemaCatalog  = "catalog"
	SchemaDownload = "download"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixGrant      = "download:grant:"
	RedisKeyGrantExpiries = "download:grant_expiries"
)

// # Event Types

const (
	EventGrantIssued   = "grant.issued"
	EventGrantRedeemed = "grant.redeemed"
)
