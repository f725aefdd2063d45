// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Authentication Constraints

const (
	// TokenType is the scheme clients must use when presenting the access token.
	TokenType = "Bearer"

	// UsernameMinLength and UsernameMaxLength bound login names.
	UsernameMinLength = 3
	UsernameMaxLength = 50

	// PasswordMinLength is the shortest accepted password.
	PasswordMinLength = 6

	// FullNameMaxLength matches the users.full_name column.
	FullNameMaxLength = 150
)
