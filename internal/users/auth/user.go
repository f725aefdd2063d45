// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements field-worker accounts and the login flow.

It defines the User entity, the storage contract for it, and the use cases
that turn a username and password into a signed session token.

# Architecture

Registration always creates an ASHA_KARMI account; administrators are seeded
out of band. Login never reveals whether the username or the password was wrong.
*/
package auth

import (
	"time"

	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

// # Domain Entities

// User represents a registered field worker or administrator.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	FullName     string       `json:"full_name"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Principal returns the identity carried by this user's session tokens.
func (u *User) Principal() sec.Principal {
	return sec.Principal{Username: u.Username, Role: u.Role}
}

// Summary is the public projection of a user embedded in visit responses.
type Summary struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldFullName    = "full_name"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
)
