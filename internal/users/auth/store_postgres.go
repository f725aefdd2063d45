// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/platform/postgres"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	db postgres.Querier
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db postgres.Querier) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, username, full_name, password_hash, role, created_at`

/*
Create persists a new user record into the users table.

The database assigns the ID and creation timestamp; both are written back
into the entity.
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (username, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := repository.db.QueryRow(ctx, query,
		user.Username,
		user.FullName,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	return dberr.Wrap(err, "postgres_user_repo_create_failed")
}

// FindByUsername retrieves a user record by their unique username.
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(repository.db.QueryRow(ctx, query, username), "postgres_user_repo_find_by_username_failed")
}

// FindByID retrieves a user record by primary key.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(repository.db.QueryRow(ctx, query, id), "postgres_user_repo_find_by_id_failed")
}

// Count returns the total number of accounts.
func (repository *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := repository.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	return total, dberr.Wrap(err, "postgres_user_repo_count_failed")
}

// List returns a page of accounts ordered by ID.
func (repository *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := repository.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_user_repo_list_failed")
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows, "postgres_user_repo_list_scan_failed")
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, dberr.Wrap(rows.Err(), "postgres_user_repo_list_failed")
}

// scanUser hydrates a User from a row in userColumns order.
func scanUser(row pgx.Row, action string) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return user, nil
}
