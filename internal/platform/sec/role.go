// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
//
// The set is closed: any other value carried by a token grants nothing.
type UserRole string

const (
	// Elevated role with cross-cutting read access to every visit, user and patient
	RoleAdmin UserRole = "ADMIN"

	// Field health worker; creates and owns visits. Default role at registration
	RoleWorker UserRole = "ASHA_KARMI"
)

// # Role Checks

// IsKnown reports whether the role belongs to the closed role set.
func (r UserRole) IsKnown() bool {
	return r == RoleAdmin || r == RoleWorker
}

// IsElevated reports whether the role has administrative read access.
func (r UserRole) IsElevated() bool {
	return r == RoleAdmin
}

// # Principal

// Principal is the authenticated identity derived from a validated session token.
//
// It is never persisted; middleware rebuilds it from token claims on every request.
type Principal struct {
	Username string
	Role     UserRole
}

// AuthResult is the outcome of request authentication.
//
// It is either [Authenticated] or [Anonymous]. An invalid token produces
// [Anonymous], never a default identity.
type AuthResult interface {
	authResult()
}

// Authenticated carries the principal of a request with a valid bearer token.
type Authenticated struct {
	Principal Principal
}

// Anonymous marks a request without a usable bearer token.
type Anonymous struct{}

func (Authenticated) authResult() {}
func (Anonymous) authResult()     {}

// PrincipalOf returns the principal held by result, if any.
func PrincipalOf(result AuthResult) (Principal, bool) {
	authenticated, ok := result.(Authenticated)
	if !ok {
		return Principal{}, false
	}
	return authenticated.Principal, true
}
