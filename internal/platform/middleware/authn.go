// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/ashaassist/internal/platform/constants"
	"github.com/taibuivan/ashaassist/internal/platform/ctxutil"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

// TokenValidator defines the interface needed to validate tokens in middleware.
//
// # Why an interface?
//
// Defining TokenValidator here decouples the middleware from [sec.TokenService],
// allowing tests to inject a stub.
type TokenValidator interface {
	Validate(token string) (sec.Principal, error)
}

// Authenticate resolves the bearer token of every request into a [sec.AuthResult].
//
// # Flow
//  1. Read the 'Authorization: Bearer <token>' header.
//  2. Missing or malformed header: bind [sec.Anonymous].
//  3. Validate via [TokenValidator]; a rejected token is also [sec.Anonymous].
//  4. A valid token binds [sec.Authenticated] for downstream use.
//
// It never writes a response. Rejection is left to [Authorize].
func Authenticate(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var result sec.AuthResult = sec.Anonymous{}

			if token, ok := bearerToken(request.Header.Get(constants.HeaderAuthorization)); ok {
				if principal, err := validator.Validate(token); err == nil {
					result = sec.Authenticated{Principal: principal}
				}
			}

			ctx := ctxutil.WithAuthResult(request.Context(), result)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
