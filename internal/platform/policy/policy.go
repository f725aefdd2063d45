// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package policy implements the static, path-based authorization table.

Rules are evaluated in declaration order and the first rule whose method and
path pattern match decides the request. A request that matches no rule must
be authenticated, with any role.

Evaluation is split into two sequential checks:

  - Authentication: does the rule need a principal, and is there one?
  - Authorization: is the principal's role in the permitted set?

Each check has its own outcome so that "not logged in" (401) never collapses
into "logged in but not allowed" (403).
*/
package policy

import (
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

// # Decisions

// Decision is the outcome of evaluating a request against the table.
type Decision int

const (
	Allowed Decision = iota
	Unauthenticated
	Forbidden
)

// String returns the label used in logs and metrics.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// # Rules

// Access describes who may reach the paths of a rule.
type Access int

const (
	// AnyAuthenticated admits every principal regardless of role.
	AnyAuthenticated Access = iota
	// Public admits anonymous requests.
	Public
	// Roles admits principals whose role is listed in [Rule.Roles].
	Roles
)

// Rule maps a method and a set of path patterns to an access level.
//
// An empty Method matches every method. A pattern ending in "/**" matches the
// prefix itself and everything below it; any other pattern must match exactly.
type Rule struct {
	Method   string
	Patterns []string
	Access   Access
	Roles    []sec.UserRole
}

// matches reports whether the rule applies to the request.
func (r Rule) matches(method, cleanPath string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	for _, pattern := range r.Patterns {
		if Match(pattern, cleanPath) {
			return true
		}
	}
	return false
}

// # Table

// Policy is an ordered, immutable rule table.
type Policy struct {
	rules []Rule
}

// New builds a policy from rules in priority order.
func New(rules ...Rule) *Policy {
	return &Policy{rules: slices.Clone(rules)}
}

// Default returns the rule table for the Asha Assist API.
func Default() *Policy {
	fieldRoles := []sec.UserRole{sec.RoleWorker, sec.RoleAdmin}

	return New(
		// Pre-flight requests never carry credentials
		Rule{Method: http.MethodOptions, Patterns: []string{"/**"}, Access: Public},

		// Register & login
		Rule{Patterns: []string{"/api/auth/**"}, Access: Public},

		// Infrastructure probes
		Rule{Patterns: []string{"/health", "/ready", "/metrics"}, Access: Public},

		Rule{Patterns: []string{"/api/admin/**"}, Access: Roles, Roles: []sec.UserRole{sec.RoleAdmin}},

		Rule{
			Patterns: []string{"/api/visits/**", "/api/patients/**", "/api/translate/**"},
			Access:   Roles,
			Roles:    fieldRoles,
		},
	)
}

// Evaluate decides whether a request may proceed to its handler.
func (p *Policy) Evaluate(method, requestPath string, result sec.AuthResult) Decision {
	cleanPath := normalize(requestPath)

	access := AnyAuthenticated
	var roles []sec.UserRole

	for _, rule := range p.rules {
		if rule.matches(method, cleanPath) {
			access, roles = rule.Access, rule.Roles
			break
		}
	}

	if access == Public {
		return Allowed
	}

	// 1. Authentication
	principal, ok := sec.PrincipalOf(result)
	if !ok {
		return Unauthenticated
	}

	// 2. Authorization
	if access == Roles && !slices.Contains(roles, principal.Role) {
		return Forbidden
	}

	return Allowed
}

// # Matching

// Match reports whether a cleaned request path matches the pattern.
func Match(pattern, cleanPath string) bool {
	prefix, recursive := strings.CutSuffix(pattern, "/**")
	if !recursive {
		return pattern == cleanPath
	}

	if prefix == "" {
		return true
	}

	return cleanPath == prefix || strings.HasPrefix(cleanPath, prefix+"/")
}

// normalize resolves dot segments and duplicate slashes so that
// "/api/auth/../admin" is matched as "/api/admin".
func normalize(requestPath string) string {
	if requestPath == "" {
		return "/"
	}
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}
	return path.Clean(requestPath)
}
