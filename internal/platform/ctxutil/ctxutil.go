// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/ashaassist/internal/platform/ctxkey"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthResult binds the outcome of request authentication to the context.
func WithAuthResult(ctx context.Context, result sec.AuthResult) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuth, result)
}

// GetAuthResult returns the bound [sec.AuthResult].
//
// A context that never passed through authentication is [sec.Anonymous].
func GetAuthResult(ctx context.Context) sec.AuthResult {
	result, ok := ctx.Value(ctxkey.KeyAuth).(sec.AuthResult)
	if !ok || result == nil {
		return sec.Anonymous{}
	}
	return result
}

// GetPrincipal returns the authenticated principal, if the request has one.
func GetPrincipal(ctx context.Context) (sec.Principal, bool) {
	return sec.PrincipalOf(GetAuthResult(ctx))
}
