// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

var (
	testSecret  = []byte("0123456789abcdef0123456789abcdef")
	otherSecret = []byte("fedcba9876543210fedcba9876543210")
)

func newTokenService(t *testing.T, secret []byte) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(base64.StdEncoding.EncodeToString(secret), nil)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies that a freshly issued token yields the same principal.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, testSecret)

	principals := []sec.Principal{
		{Username: "asha1", Role: sec.RoleWorker},
		{Username: "root", Role: sec.RoleAdmin},
	}

	for _, principal := range principals {
		t.Run(principal.Username, func(t *testing.T) {
			token, err := service.Issue(principal)
			require.NoError(t, err)

			got, err := service.Validate(token)
			require.NoError(t, err)
			assert.Equal(t, principal, got)
		})
	}
}

/*
TestTokenService_ClaimsShape checks the subject, role and the fixed 7-day lifetime.
*/
func TestTokenService_ClaimsShape(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	service := newTokenService(t, testSecret).WithClock(func() time.Time { return issuedAt })

	token, err := service.Issue(sec.Principal{Username: "asha1", Role: sec.RoleWorker})
	require.NoError(t, err)

	claims := &sec.SessionClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Equal(t, "asha1", claims.Subject)
	assert.Equal(t, "ASHA_KARMI", claims.Role)
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issuedAt.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokenService_Expired verifies that an expired token is rejected despite a valid signature.
*/
func TestTokenService_Expired(t *testing.T) {
	base := newTokenService(t, testSecret)
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)

	token, err := base.WithClock(func() time.Time { return issuedAt }).
		Issue(sec.Principal{Username: "asha1", Role: sec.RoleWorker})
	require.NoError(t, err)

	_, err = base.Validate(token)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_ExpiryIsAbsolute validates just inside and just past the lifetime.
*/
func TestTokenService_ExpiryIsAbsolute(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	base := newTokenService(t, testSecret)

	token, err := base.WithClock(func() time.Time { return issuedAt }).
		Issue(sec.Principal{Username: "asha1", Role: sec.RoleWorker})
	require.NoError(t, err)

	inside := base.WithClock(func() time.Time { return issuedAt.Add(sec.SessionTokenTTL - time.Second) })
	_, err = inside.Validate(token)
	assert.NoError(t, err)

	past := base.WithClock(func() time.Time { return issuedAt.Add(sec.SessionTokenTTL + time.Second) })
	_, err = past.Validate(token)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_Rejections covers every uniform-rejection path.
*/
func TestTokenService_Rejections(t *testing.T) {
	service := newTokenService(t, testSecret)
	foreign := newTokenService(t, otherSecret)

	foreignToken, err := foreign.Issue(sec.Principal{Username: "asha1", Role: sec.RoleWorker})
	require.NoError(t, err)

	now := time.Now()
	claims := sec.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "asha1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: "ADMIN",
	}

	hs512Token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noRole := claims
	noRole.Role = ""
	noRoleToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noRole).SignedString(testSecret)
	require.NoError(t, err)

	noExpiry := claims
	noExpiry.ExpiresAt = nil
	noExpiryToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiry).SignedString(testSecret)
	require.NoError(t, err)

	valid, err := service.Issue(sec.Principal{Username: "asha1", Role: sec.RoleWorker})
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not-a-jwt"},
		{"different_secret", foreignToken},
		{"tampered_signature", tampered},
		{"wrong_algorithm_hs512", hs512Token},
		{"alg_none", noneToken},
		{"missing_role", noRoleToken},
		{"missing_expiry", noExpiryToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := service.Validate(tt.token)
			assert.ErrorIs(t, err, sec.ErrInvalidToken)
			assert.Equal(t, sec.Principal{}, principal)
		})
	}
}

/*
TestNewTokenService_SecretValidation verifies startup rejection of unusable secrets.
*/
func TestNewTokenService_SecretValidation(t *testing.T) {
	_, err := sec.NewTokenService("%%%not-base64%%%", nil)
	assert.Error(t, err)

	_, err = sec.NewTokenService(base64.StdEncoding.EncodeToString([]byte("short")), nil)
	assert.Error(t, err)

	_, err = sec.NewTokenService(base64.StdEncoding.EncodeToString(testSecret), nil)
	assert.NoError(t, err)
}
