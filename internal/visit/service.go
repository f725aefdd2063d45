// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/constants"
	"github.com/taibuivan/ashaassist/internal/platform/ctxutil"
	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/platform/metrics"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
	"github.com/taibuivan/ashaassist/internal/platform/sms"
	"github.com/taibuivan/ashaassist/internal/users/auth"
)

// # Contracts & Types

// UserLookup resolves the worker behind a principal.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*auth.User, error)
}

// Service implements the visit verification state machine.
//
// # Concurrency
//
// The service holds no mutable state. Concurrent starts for the same patient
// each create their own visit and send their own code.
type Service struct {
	visits   Repository
	records  RecordRepository
	patients patient.Repository
	users    UserLookup
	sender   sms.Sender
	metrics  *metrics.Metrics

	now             func() time.Time
	generateCode    func() (string, error)
	deliveryTimeout time.Duration
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	visits Repository,
	records RecordRepository,
	patients patient.Repository,
	users UserLookup,
	sender sms.Sender,
	instruments *metrics.Metrics,
) *Service {
	return &Service{
		visits:          visits,
		records:         records,
		patients:        patients,
		users:           users,
		sender:          sender,
		metrics:         instruments,
		now:             time.Now,
		generateCode:    sec.GenerateOTP,
		deliveryTimeout: constants.SMSDeliveryTimeout,
	}
}

// WithClock replaces the time source.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// WithCodeGenerator replaces the one-time code source.
func (service *Service) WithCodeGenerator(generate func() (string, error)) *Service {
	service.generateCode = generate
	return service
}

// WithDeliveryTimeout bounds each SMS provider call.
func (service *Service) WithDeliveryTimeout(timeout time.Duration) *Service {
	service.deliveryTimeout = timeout
	return service
}

// # Start Flow

// StartInput identifies the patient of a new visit.
//
// Patient details are only read when the phone number is not yet registered.
type StartInput struct {
	PatientPhone string
	Patient      patient.Details
}

/*
Start creates a visit after delivering its one-time code to the patient.

Flow:
 1. Resolve the patient by phone, registering them if unknown (name required).
 2. Generate a 6-digit code.
 3. Send the code by SMS. Any failure, including a timeout, aborts here with
    nothing persisted.
 4. Persist the visit with a 5-minute expiry.

Parameters:
  - ctx: context.Context
  - principal: sec.Principal (the worker starting the visit)
  - input: StartInput

Returns:
  - *Visit: Created entity (only its ID is exposed over the API)
  - err: MissingRequiredField, DeliveryFailed or storage errors
*/
func (service *Service) Start(ctx context.Context, principal sec.Principal, input StartInput) (*Visit, error) {
	logger := ctxutil.GetLogger(ctx)

	// Validate the phone before any lookup
	phone := strings.TrimSpace(input.PatientPhone)
	if phone == "" {
		return nil, apperr.MissingRequiredField(FieldPatientPhone, "Patient phone number is required")
	}

	// 1. Resolve worker and patient
	owner, err := service.users.FindByUsername(ctx, principal.Username)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("visit_service_owner_lookup_failed: %w", err)
	}

	subject, err := service.resolvePatient(ctx, phone, input.Patient)
	if err != nil {
		return nil, err
	}

	// 2. Generate the code
	code, err := service.generateCode()
	if err != nil {
		return nil, fmt.Errorf("visit_service_generate_code_failed: %w", err)
	}

	// 3. Deliver (fail closed)
	if err := service.deliver(ctx, subject.PhoneNumber, code); err != nil {
		service.metrics.IncrementDeliveryFailures()
		logger.WarnContext(ctx, "visit_otp_delivery_failed",
			slog.Int64("patient_id", subject.ID),
			slog.Any("error", err),
		)
		return nil, apperr.DeliveryFailed(err)
	}

	// 4. Persist
	createdAt := service.now()
	v := &Visit{
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
		OwnerFullName: owner.FullName,
		PatientID:     subject.ID,
		PatientPhone:  subject.PhoneNumber,
		PatientName:   subject.FullName,
		OTPCode:       code,
		OTPExpiresAt:  createdAt.Add(constants.OTPTTL),
		CreatedAt:     createdAt,
	}

	if err := service.visits.Save(ctx, v); err != nil {
		// The code has already been sent; the caller may retry, which sends a new one.
		return nil, fmt.Errorf("visit_service_save_failed: %w", err)
	}

	// 5. Record and return the created visit
	service.metrics.IncrementVisitsStarted()
	logger.InfoContext(ctx, "visit_started",
		slog.Int64("visit_id", v.ID),
		slog.Int64("patient_id", subject.ID),
		slog.String("username", owner.Username),
	)

	return v, nil
}

/*
resolvePatient finds the patient by phone or registers a new one.

Returns:
  - *patient.Patient: Existing or newly registered patient
  - err: MissingRequiredField when a new patient has no name, or storage errors
*/
func (service *Service) resolvePatient(ctx context.Context, phone string, details patient.Details) (*patient.Patient, error) {

	// Reuse a registered patient
	existing, err := service.patients.FindByPhone(ctx, phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, dberr.ErrNotFound) {
		return nil, fmt.Errorf("visit_service_patient_lookup_failed: %w", err)
	}

	// Register a new one
	if !details.HasName() {
		return nil, apperr.MissingRequiredField(FieldFullName, "Full name is required for a new patient")
	}

	created := patient.New(phone, details)
	if err := service.patients.Save(ctx, created); err != nil {
		// Another worker registered the same number in the meantime.
		if errors.Is(err, dberr.ErrDuplicate) {
			return service.patients.FindByPhone(ctx, phone)
		}
		return nil, fmt.Errorf("visit_service_patient_save_failed: %w", err)
	}

	return created, nil
}

// deliver sends the code with a bounded wait.
func (service *Service) deliver(ctx context.Context, destination, code string) error {
	deliveryCtx, cancel := context.WithTimeout(ctx, service.deliveryTimeout)
	defer cancel()

	start := time.Now()
	err := service.sender.Send(deliveryCtx, destination, constants.OTPMessagePrefix+code)
	service.metrics.ObserveSMSDelivery(start)

	if err == nil && deliveryCtx.Err() != nil {
		// A sender that ignores ctx and returns late is still a timeout.
		return deliveryCtx.Err()
	}
	return err
}

// # Verify Flow

/*
Verify checks a submitted code against the visit.

It returns true iff the code matches and now <= OTPExpiresAt. The first
success moves the visit to VERIFIED. Later successes with the same code return
true without touching VerifiedAt, including those decided on a stale copy of
the visit. Wrong and expired codes are reported identically as false.

Parameters:
  - ctx: context.Context
  - visitID: int64
  - code: string (as read out by the patient)

Returns:
  - bool: verification outcome
  - err: NotFound if the visit does not exist, or storage errors
*/
func (service *Service) Verify(ctx context.Context, visitID int64, code string) (bool, error) {
	logger := ctxutil.GetLogger(ctx)

	// 1. Load the visit
	v, err := service.visits.FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return false, apperr.NotFound("Visit")
		}
		return false, fmt.Errorf("visit_service_find_failed: %w", err)
	}

	// 2. Check the code and its expiry
	now := service.now()
	if !v.Accepts(code, now) {
		service.metrics.RecordVerification(false)
		logger.InfoContext(ctx, "visit_verification_rejected", slog.Int64("visit_id", visitID))
		return false, nil
	}

	// 3. Transition against the stored row, not the copy read above
	if !v.IsVerified {
		transitioned, err := service.visits.MarkVerified(ctx, visitID, now)

		// Handle errors
		if err != nil {
			if errors.Is(err, dberr.ErrNotFound) {
				return false, apperr.NotFound("Visit")
			}
			return false, fmt.Errorf("visit_service_mark_verified_failed: %w", err)
		}

		if transitioned {
			logger.InfoContext(ctx, "visit_verified", slog.Int64("visit_id", visitID))
		}
	}

	// Return true on success
	service.metrics.RecordVerification(true)
	return true, nil
}

// # Read Flows

// ListRecentForWorker returns the worker's newest visits, at most five.
func (service *Service) ListRecentForWorker(ctx context.Context, username string) ([]*Visit, error) {
	visits, err := service.visits.ListRecentByOwner(ctx, username, constants.RecentVisitLimit)
	if err != nil {
		return nil, fmt.Errorf("visit_service_list_recent_failed: %w", err)
	}
	return visits, nil
}

/*
Get returns a single visit with its medical record, after the ownership check.

Parameters:
  - ctx: context.Context
  - principal: sec.Principal (the caller)
  - visitID: int64

Returns:
  - *View: visit projection including the medical record, if any
  - err: NotFound or AccessDenied
*/
func (service *Service) Get(ctx context.Context, principal sec.Principal, visitID int64) (*View, error) {

	// 1. Load the visit
	v, err := service.visits.FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("Visit")
		}
		return nil, fmt.Errorf("visit_service_find_failed: %w", err)
	}

	// 2. Ownership check
	if err := CheckReadAccess(principal, v); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "visit_access_denied",
			slog.Int64("visit_id", visitID),
			slog.String("username", principal.Username),
		)
		return nil, err
	}

	// 3. Attach the medical record (a visit may not have one yet)
	record, err := service.records.FindByVisitID(ctx, visitID)
	if err != nil && !errors.Is(err, dberr.ErrNotFound) {
		return nil, fmt.Errorf("visit_service_record_lookup_failed: %w", err)
	}

	view := NewView(v, record)
	return &view, nil
}
