// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Find operations return [dberr.ErrNotFound] when no account matches.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: dberr.ErrNotFound or database retrieval failures
	*/
	FindByID(ctx context.Context, id int64) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Returns:
		  - *User: Hydrated entity
		  - error: dberr.ErrNotFound or database retrieval failures
	*/
	FindByUsername(ctx context.Context, username string) (*User, error)

	/*
		Create persists a brand-new account and assigns its ID and CreatedAt.

		Returns:
		  - error: dberr.ErrDuplicate when the username is taken
	*/
	Create(ctx context.Context, user *User) error

	// Count returns the number of accounts.
	Count(ctx context.Context) (int, error)

	// List returns a page of accounts ordered by ID.
	List(ctx context.Context, limit, offset int) ([]*User, error)
}
