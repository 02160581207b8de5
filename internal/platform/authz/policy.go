// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authz implements the route-level authorization policy.

A [Policy] is a static table of path patterns mapped to access requirements.
It is consulted once per request, after the authentication gateway has
resolved (or not) the caller's identity.

Matching:

  - Patterns are exact paths ("/api/v1/auth/me") or prefix wildcards ("/api/v1/songs/**").
  - The most specific matching rule wins: exact before wildcard, longer prefix before shorter.
  - Paths without a matching rule require an authenticated caller.

Tier requirements are resolved against the account store on every check, so a
subscription change applies to the caller's very next request.
*/
package authz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

// # Requirements

// Requirement is the access level a route demands.
type Requirement string

const (
	RequirePublic        Requirement = "PUBLIC"
	RequireAuthenticated Requirement = "AUTHENTICATED"
	RequireStandard      Requirement = "TIER_STANDARD"
	RequirePremium       Requirement = "TIER_PREMIUM"
)

// DefaultRequirement applies to paths that no rule matches.
const DefaultRequirement = RequireAuthenticated

// DenyReason explains a negative [Decision].
type DenyReason string

const (
	ReasonNotAuthenticated DenyReason = "NOT_AUTHENTICATED"
	ReasonInsufficientTier DenyReason = "INSUFFICIENT_TIER"
)

const wildcardSuffix = "/**"

// Rule maps a path pattern to a [Requirement].
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed     bool
	Requirement Requirement
	Reason      DenyReason
	// Pattern is the matched rule pattern, empty when the default applied.
	Pattern string
}

// TierResolver looks up the current subscription tier of an identity.
type TierResolver interface {
	TierOf(ctx context.Context, userID string) (sec.Tier, error)
}

// compiledRule is a validated rule with its matching prefix precomputed.
type compiledRule struct {
	Rule
	prefix   string
	wildcard bool
}

// matches reports whether path falls under the rule.
func (rule compiledRule) matches(path string) bool {
	if !rule.wildcard {
		return path == rule.prefix
	}
	if rule.prefix == "" {
		return true
	}
	return path == rule.prefix || strings.HasPrefix(path, rule.prefix+"/")
}

// # Policy

// Policy evaluates requests against an ordered rule table.
type Policy struct {
	rules    []compiledRule
	resolver TierResolver
}

// NewPolicy validates and orders rules by specificity.
//
// Duplicate patterns and malformed wildcards are rejected.
func NewPolicy(rules []Rule, resolver TierResolver) (*Policy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))

	for _, rule := range rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("authz: pattern %q must start with '/'", rule.Pattern)
		}

		switch rule.Requirement {
		case RequirePublic, RequireAuthenticated, RequireStandard, RequirePremium:
		default:
			return nil, fmt.Errorf("authz: pattern %q has unknown requirement %q", rule.Pattern, rule.Requirement)
		}

		if _, duplicate := seen[rule.Pattern]; duplicate {
			return nil, fmt.Errorf("authz: duplicate pattern %q", rule.Pattern)
		}
		seen[rule.Pattern] = struct{}{}

		entry := compiledRule{Rule: rule, prefix: rule.Pattern}
		if strings.HasSuffix(rule.Pattern, wildcardSuffix) {
			entry.wildcard = true
			entry.prefix = strings.TrimSuffix(rule.Pattern, wildcardSuffix)
		}

		if strings.Contains(entry.prefix, "*") {
			return nil, fmt.Errorf("authz: pattern %q may only use a trailing /** wildcard", rule.Pattern)
		}

		compiled = append(compiled, entry)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		left, right := compiled[i], compiled[j]
		if left.wildcard != right.wildcard {
			return !left.wildcard
		}
		return len(left.prefix) > len(right.prefix)
	})

	return &Policy{rules: compiled, resolver: resolver}, nil
}

// Match returns the most specific rule for path and whether one matched.
func (policy *Policy) Match(path string) (Rule, bool) {
	for _, rule := range policy.rules {
		if rule.matches(path) {
			return rule.Rule, true
		}
	}
	return Rule{Requirement: DefaultRequirement}, false
}

/*
Check decides whether the caller may access path.

Parameters:
  - ctx: context.Context
  - path: string (the request URL path)
  - claims: *sec.AuthClaims (nil for anonymous callers)

Returns:
  - Decision: ALLOW or DENY with a reason
  - error: Tier lookup failures (never a denial)
*/
func (policy *Policy) Check(ctx context.Context, path string, claims *sec.AuthClaims) (Decision, error) {
	rule, _ := policy.Match(path)
	decision := Decision{Requirement: rule.Requirement, Pattern: rule.Pattern}

	if rule.Requirement == RequirePublic {
		decision.Allowed = true
		return decision, nil
	}

	if claims == nil {
		decision.Reason = ReasonNotAuthenticated
		return decision, nil
	}

	if rule.Requirement == RequireAuthenticated {
		decision.Allowed = true
		return decision, nil
	}

	required := sec.TierStandard
	if rule.Requirement == RequirePremium {
		required = sec.TierPremium
	}

	// Tier is authoritative account data, never a token claim.
	tier, err := policy.resolver.TierOf(ctx, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			decision.Reason = ReasonNotAuthenticated
			return decision, nil
		}
		return Decision{}, fmt.Errorf("authz_tier_lookup_failed: %w", err)
	}

	if !tier.AtLeast(required) {
		decision.Reason = ReasonInsufficientTier
		return decision, nil
	}

	decision.Allowed = true
	return decision, nil
}

// # Default Table

// DefaultRules returns the route table of the public API mounted at apiPrefix.
func DefaultRules(apiPrefix string) []Rule {
	return []Rule{
		// Infrastructure
		{Pattern: "/health", Requirement: RequirePublic},
		{Pattern: "/ready", Requirement: RequirePublic},
		{Pattern: "/metrics", Requirement: RequirePublic},

		// Authentication entry points
		{Pattern: apiPrefix + "/auth/register", Requirement: RequirePublic},
		{Pattern: apiPrefix + "/auth/login", Requirement: RequirePublic},
		{Pattern: apiPrefix + "/auth/refresh-token", Requirement: RequirePublic},
		{Pattern: apiPrefix + "/auth/me", Requirement: RequireAuthenticated},
		{Pattern: apiPrefix + "/auth/logout", Requirement: RequireAuthenticated},

		// Catalog browsing
		{Pattern: apiPrefix + "/songs/**", Requirement: RequirePublic},
		{Pattern: apiPrefix + "/artists/**", Requirement: RequirePublic},
		{Pattern: apiPrefix + "/albums/**", Requirement: RequirePublic},

		// Any signed-in listener
		{Pattern: apiPrefix + "/playlists/**", Requirement: RequireAuthenticated},
		{Pattern: apiPrefix + "/accounts/**", Requirement: RequireAuthenticated},
		{Pattern: apiPrefix + "/download/**", Requirement: RequireAuthenticated},

		// Tiered areas
		{Pattern: apiPrefix + "/user/**", Requirement: RequireStandard},
		{Pattern: apiPrefix + "/premium/**", Requirement: RequirePremium},
	}
}
