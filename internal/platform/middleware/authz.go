// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/ctxutil"
	"github.com/taibuivan/ashaassist/internal/platform/metrics"
	"github.com/taibuivan/ashaassist/internal/platform/policy"
	"github.com/taibuivan/ashaassist/internal/platform/respond"
)

// Authorize enforces the path policy before any handler executes.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Evaluate method + path against the [policy.Policy].
//  2. Unauthenticated: abort with HTTP 401.
//  3. Forbidden: abort with HTTP 403.
func Authorize(table *policy.Policy, instruments *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			decision := table.Evaluate(request.Method, request.URL.Path, ctxutil.GetAuthResult(request.Context()))
			instruments.RecordDecision(decision.String())

			switch decision {
			case policy.Allowed:
				next.ServeHTTP(writer, request)

			case policy.Unauthenticated:
				respond.Unauthenticated(writer, request)

			default:
				principal, _ := ctxutil.GetPrincipal(request.Context())
				ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "authorization_denied",
					slog.String("username", principal.Username),
					slog.String("role", string(principal.Role)),
				)
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
			}
		})
	}
}
