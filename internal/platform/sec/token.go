// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, OTP
// generation) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via small interfaces.
package sec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Lifetime

const (
	// SessionTokenTTL is the fixed, non-renewable lifetime of a session token.
	SessionTokenTTL = 7 * 24 * time.Hour

	// minSecretBytes is the smallest accepted HS256 key (256 bits).
	minSecretBytes = 32
)

var (
	// ErrInvalidToken is the single rejection returned by [TokenService.Validate].
	ErrInvalidToken = errors.New("sec: invalid token")

	errUnexpectedSigningMethod = errors.New("unexpected signing method")
)

// SessionClaims is the payload embedded inside a session token.
//
// The subject is the username; iat and exp come from the registered claims.
type SessionClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}

// TokenService issues and validates HS256 session tokens.
//
// # Concurrency
//
// The secret is read-only after construction, so a single instance is safe
// for unbounded concurrent use.
type TokenService struct {
	secret []byte
	now    func() time.Time
	logger *slog.Logger
}

// NewTokenService creates a new TokenService from a base64 encoded secret.
//
// A secret that does not decode, or decodes to fewer than 32 bytes, is a
// startup error.
func NewTokenService(encodedSecret string, logger *slog.Logger) (*TokenService, error) {
	secret, err := base64.StdEncoding.DecodeString(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("sec: jwt secret is not valid base64: %w", err)
	}

	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("sec: jwt secret must decode to at least %d bytes, got %d", minSecretBytes, len(secret))
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TokenService{
		secret: secret,
		now:    time.Now,
		logger: logger,
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// Issue creates a signed session token for the principal.
func (service *TokenService) Issue(principal Principal) (string, error) {
	issuedAt := service.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(SessionTokenTTL)),
		},
		Role: string(principal.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Validate checks the signature and expiry of a token and returns its principal.
//
// Every failure yields [ErrInvalidToken]; the concrete reason is only logged.
func (service *TokenService) Validate(tokenString string) (Principal, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%w: %v", errUnexpectedSigningMethod, token.Header["alg"])
			}
			return service.secret, nil
		},
		jwt.WithTimeFunc(service.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	if err != nil {
		service.logger.Debug("session_token_rejected",
			slog.String("reason", rejectionReason(err)),
			slog.Any("error", err),
		)
		return Principal{}, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.Role == "" {
		service.logger.Debug("session_token_rejected", slog.String("reason", "missing_claims"))
		return Principal{}, ErrInvalidToken
	}

	return Principal{Username: claims.Subject, Role: UserRole(claims.Role)}, nil
}

// rejectionReason classifies a parse error for diagnostics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, errUnexpectedSigningMethod):
		return "unexpected_algorithm"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature_mismatch"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
