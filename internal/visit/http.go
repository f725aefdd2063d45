// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	requestutil "github.com/taibuivan/ashaassist/internal/platform/request"
	"github.com/taibuivan/ashaassist/internal/platform/respond"
	"github.com/taibuivan/ashaassist/internal/platform/validate"
)

// dateLayout is the wire format of a patient's date of birth.
const dateLayout = "2006-01-02"

// # Definitions & Constructors

// Handler implements visit HTTP endpoints for field workers.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with visit routes.
//
// # Endpoints
//   - POST /start      : Sends a code to the patient and opens a visit.
//   - POST /verify     : Submits the patient's code.
//   - GET  /my-recent  : The caller's five newest visits.
//   - GET  /{id}       : A single visit, owner or admin only.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/start", handler.start)
	router.Post("/verify", handler.verify)
	router.Get("/my-recent", handler.myRecent)
	router.Get("/{id}", handler.get)

	return router
}

// # Request & Response Payloads

type startRequest struct {
	PatientPhone string `json:"patient_phone_number"`
	FullName     string `json:"full_name"`
	DateOfBirth  string `json:"date_of_birth"`
	Gender       string `json:"gender"`
	Address      string `json:"address"`
}

type startResponse struct {
	VisitID int64 `json:"visit_id"`
}

type verifyRequest struct {
	VisitID int64  `json:"visit_id"`
	OTP     string `json:"otp"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

/*
start opens a visit after sending the patient a one-time code.

POST /api/visits/start

Response:
  - 200: {"visit_id": int}
  - 400: Validation failure, or missing full_name for a new patient
  - 502: DELIVERY_FAILED: SMS could not be sent, nothing was recorded
*/
func (handler *Handler) start(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input startRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPatientPhone, input.PatientPhone).
		MaxLen(FieldPatientPhone, input.PatientPhone, patient.PhoneMaxLength).
		MaxLen(FieldFullName, input.FullName, patient.FullNameMaxLength)

	if input.Gender != "" {
		validator.OneOf(FieldGender, strings.ToUpper(input.Gender), patient.Genders...)
	}

	var dateOfBirth *time.Time
	if input.DateOfBirth != "" {
		parsed, parseErr := time.Parse(dateLayout, input.DateOfBirth)
		validator.Custom(FieldDateOfBirth, parseErr != nil, "Must be a date in YYYY-MM-DD format")
		if parseErr == nil {
			dateOfBirth = &parsed
		}
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Start(request.Context(), principal, StartInput{
		PatientPhone: input.PatientPhone,
		Patient: patient.Details{
			FullName:    input.FullName,
			DateOfBirth: dateOfBirth,
			Gender:      input.Gender,
			Address:     input.Address,
		},
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, startResponse{VisitID: created.ID})
}

/*
verify checks the patient's code.

POST /api/visits/verify

Response:
  - 200: {"verified": true}
  - 400: VERIFICATION_FAILED: Wrong or expired code (indistinguishable)
  - 404: Visit not found
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Custom(FieldVisitID, input.VisitID <= 0, "Must be a positive integer").
		Required(FieldOTP, input.OTP)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	verified, err := handler.service.Verify(request.Context(), input.VisitID, strings.TrimSpace(input.OTP))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !verified {
		respond.Error(writer, request, apperr.VerificationFailed())
		return
	}

	respond.OK(writer, verifyResponse{Verified: true})
}

/*
myRecent lists the caller's newest visits.

GET /api/visits/my-recent

Response:
  - 200: []View (at most five, newest first)
*/
func (handler *Handler) myRecent(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	visits, err := handler.service.ListRecentForWorker(request.Context(), principal.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, NewViews(visits))
}

/*
get returns a single visit with its medical record.

GET /api/visits/{id}

Response:
  - 200: View
  - 403: ACCESS_DENIED: Caller neither owns the visit nor is an admin
  - 404: Visit not found
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	visitID, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Get(request.Context(), principal, visitID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}
