// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patient

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/ashaassist/internal/platform/request"
	"github.com/taibuivan/ashaassist/internal/platform/respond"
)

// Handler implements patient HTTP endpoints for field workers.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with patient routes.
//
// # Endpoints
//   - GET /exists/{phoneNumber} : Reports whether the patient is registered.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/exists/{phoneNumber}", handler.exists)
	return router
}

/*
exists reports whether a patient is registered under a phone number.

GET /api/patients/exists/{phoneNumber}

Response:
  - 200: {"data": bool}
*/
func (handler *Handler) exists(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.service.Exists(request.Context(), requestutil.Param(request, "phoneNumber"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}
