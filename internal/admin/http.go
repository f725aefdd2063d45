// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/ashaassist/internal/platform/request"
	"github.com/taibuivan/ashaassist/internal/platform/respond"
	"github.com/taibuivan/ashaassist/pkg/pagination"
)

// Handler implements the administrator HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with admin routes.
//
// # Endpoints
//   - GET /stats
//   - GET /recent-visits
//   - GET /users, /users/{id}, /users/{id}/visits
//   - GET /patients, /patients/{id}, /patients/{id}/visits
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/stats", handler.stats)
	router.Get("/recent-visits", handler.recentVisits)

	router.Route("/users", func(r chi.Router) {
		r.Get("/", handler.listUsers)
		r.Get("/{id}", handler.getUser)
		r.Get("/{id}/visits", handler.userVisits)
	})

	router.Route("/patients", func(r chi.Router) {
		r.Get("/", handler.listPatients)
		r.Get("/{id}", handler.getPatient)
		r.Get("/{id}/visits", handler.patientVisits)
	})

	return router
}

func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

func (handler *Handler) recentVisits(writer http.ResponseWriter, request *http.Request) {
	views, err := handler.service.RecentVisits(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, views)
}

/*
listUsers returns a page of accounts.

GET /api/admin/users?page=1&limit=20

Response:
  - 200: []User with pagination meta (no password hashes)
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	users, total, err := handler.service.ListUsers(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(page.Page, page.Limit, total))
}

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

func (handler *Handler) userVisits(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views, err := handler.service.UserVisits(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, views)
}

func (handler *Handler) listPatients(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	patients, total, err := handler.service.ListPatients(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, patients, pagination.NewMeta(page.Page, page.Limit, total))
}

func (handler *Handler) getPatient(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.GetPatient(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

func (handler *Handler) patientVisits(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views, err := handler.service.PatientVisits(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, views)
}
