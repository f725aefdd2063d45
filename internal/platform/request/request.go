// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/ctxutil"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
	"github.com/taibuivan/ashaassist/internal/platform/validate"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target interface{}) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Int64Param parses a named URL parameter as a positive numeric identifier.

Returns:
  - error: a VALIDATION_ERROR naming the parameter if it is not a positive integer
*/
func Int64Param(request *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ValidationError("Invalid identifier", apperr.FieldError{
			Field:   name,
			Message: "Must be a positive integer",
		})
	}
	return id, nil
}

/*
RequiredPrincipal ensures the request is authenticated and returns its principal.

The authorization middleware rejects anonymous callers before handlers run,
so the error branch only fires when a route is mounted outside that chain.

Returns:
  - sec.Principal: The authenticated identity
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredPrincipal(request *http.Request) (sec.Principal, error) {
	principal, ok := ctxutil.GetPrincipal(request.Context())
	if !ok {
		return sec.Principal{}, apperr.Unauthorized("Authentication required")
	}
	return principal, nil
}
