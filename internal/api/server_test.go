// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ashaassist/internal/admin"
	"github.com/taibuivan/ashaassist/internal/api"
	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/config"
	"github.com/taibuivan/ashaassist/internal/platform/metrics"
	"github.com/taibuivan/ashaassist/internal/platform/policy"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
	"github.com/taibuivan/ashaassist/internal/users/auth"
	"github.com/taibuivan/ashaassist/internal/visit"
)

// newTestServer wires the real chain. Domain services have no storage, so
// only requests rejected before a handler, or by input validation, are safe.
func newTestServer(t *testing.T, readiness api.HealthDependencies) (http.Handler, *sec.TokenService) {
	t.Helper()

	tokens, err := sec.NewTokenService(base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")), nil)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	instruments := metrics.New(registry)
	cfg := &config.Config{ServerPort: "0", AllowedOrigins: []string{"http://localhost:5173"}}

	liveness, ready := api.NewHealthHandlers(readiness, nil)
	server := api.NewServer(context.Background(), cfg, nil, api.Security{
		Validator: tokens,
		Policy:    policy.Default(),
		Metrics:   instruments,
	}, api.Handlers{
		Liveness:  liveness,
		Readiness: ready,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Auth:      auth.NewHandler(auth.NewService(nil, tokens)),
		Visit:     visit.NewHandler(visit.NewService(nil, nil, nil, nil, nil, instruments)),
		Patient:   patient.NewHandler(patient.NewService(nil)),
		Admin:     admin.NewHandler(admin.NewService(nil, nil, nil)),
	})

	return server.Handler(), tokens
}

func bearer(t *testing.T, tokens *sec.TokenService, principal sec.Principal) string {
	t.Helper()
	token, err := tokens.Issue(principal)
	require.NoError(t, err)
	return "Bearer " + token
}

/*
TestServer_AccessControl checks that the policy rejects requests before any handler runs.
*/
func TestServer_AccessControl(t *testing.T) {
	handler, tokens := newTestServer(t, api.HealthDependencies{})

	worker := bearer(t, tokens, sec.Principal{Username: "asha1", Role: sec.RoleWorker})

	tests := []struct {
		name          string
		method        string
		path          string
		authorization string
		wantStatus    int
	}{
		{"liveness_is_public", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics_is_public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"login_is_public", http.MethodPost, "/api/auth/login", "", http.StatusBadRequest},
		{"visits_need_token", http.MethodGet, "/api/visits/my-recent", "", http.StatusUnauthorized},
		{"invalid_token", http.MethodGet, "/api/visits/my-recent", "Bearer nope", http.StatusUnauthorized},
		{"admin_needs_token", http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{"admin_rejects_worker", http.MethodGet, "/api/admin/stats", worker, http.StatusForbidden},
		{"dot_segments_do_not_bypass", http.MethodGet, "/api/auth/../admin/stats", worker, http.StatusForbidden},
		{"unknown_route_needs_token", http.MethodGet, "/api/unknown", "", http.StatusUnauthorized},
		{"preflight_is_public", http.MethodOptions, "/api/admin/stats", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.authorization != "" {
				request.Header.Set("Authorization", tt.authorization)
			}
			if tt.method == http.MethodOptions {
				request.Header.Set("Origin", "http://localhost:5173")
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

/*
TestServer_Readiness reports degraded when a dependency fails.
*/
func TestServer_Readiness(t *testing.T) {
	healthy, _ := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return nil },
	})
	recorder := httptest.NewRecorder()
	healthy.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	degraded, _ := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("connection refused") },
	})
	recorder = httptest.NewRecorder()
	degraded.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "degraded")
}
