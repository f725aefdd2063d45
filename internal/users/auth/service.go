// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/ctxutil"
	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

// # Contracts & Types

// TokenIssuer defines the contract for generating session tokens.
type TokenIssuer interface {
	// Issue creates a signed session token for the principal.
	Issue(principal sec.Principal) (string, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenIssuer    TokenIssuer
	checkPassword  func(plainTextPassword, existingHash string) bool
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo UserRepository, issuer TokenIssuer) *Service {
	return &Service{
		userRepository: userRepo,
		tokenIssuer:    issuer,
		checkPassword:  sec.CheckPasswordHash,
	}
}

// WithPasswordChecker replaces the password comparison.
func (service *Service) WithPasswordChecker(check func(plainTextPassword, existingHash string) bool) *Service {
	service.checkPassword = check
	return service
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new field worker.
type RegisterInput struct {
	Username string
	Password string
	FullName string
}

/*
Register hashes the password and persists a new ASHA_KARMI account.

Returns:
  - *User: Created entity
  - err: Conflict (if the username exists) or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	// Verify username uniqueness. Return a client-safe Conflict err.
	_, err := service.userRepository.FindByUsername(ctx, input.Username)
	switch {
	case err == nil:
		return nil, apperr.Conflict("Username is already taken")
	case !errors.Is(err, dberr.ErrNotFound):
		return nil, fmt.Errorf("auth_service_lookup_failed: %w", err)
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		Username:     input.Username,
		FullName:     norm.NFC.String(input.FullName),
		PasswordHash: hashedPassword,
		Role:         sec.RoleWorker,
	}

	// A concurrent registration may still win the race; the unique index decides.
	if err := service.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, dberr.ErrDuplicate) {
			return nil, apperr.Conflict("Username is already taken")
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "user_registered", slog.String("username", user.Username))

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
}

// LoginSession represents a successfully issued session token.
type LoginSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

/*
Login validates user credentials and issues a session token.

An unknown username still pays for one bcrypt comparison, so response time
does not reveal which accounts exist.

Parameters:
  - ctx: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Signed token and its scheme
  - err: Unauthorized (uniform for unknown user and wrong password) or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {

	// 1. Lookup
	user, err := service.userRepository.FindByUsername(ctx, input.Username)
	if err != nil && !errors.Is(err, dberr.ErrNotFound) {
		return nil, fmt.Errorf("auth_service_lookup_failed: %w", err)
	}

	// 2. Compare against the stored hash, or a dummy one for unknown users
	existingHash := sec.DummyPasswordHash()
	if user != nil {
		existingHash = user.PasswordHash
	}
	passwordMatches := service.checkPassword(input.Password, existingHash)

	// Generic message to prevent enumeration.
	if user == nil || !passwordMatches {
		return nil, apperr.Unauthorized("Invalid username or password")
	}

	// 3. Issue the session
	token, err := service.tokenIssuer.Issue(user.Principal())
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_failed: %w", err)
	}

	return &LoginSession{AccessToken: token, TokenType: TokenType}, nil
}
