// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin exposes read-only oversight of workers, patients and visits.

Every route here sits behind the ADMIN rule of the authorization policy.
Responses reuse the public projections of each domain, so password hashes and
one-time codes never leave the service.
*/
package admin

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/constants"
	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/users/auth"
	"github.com/taibuivan/ashaassist/internal/visit"
	"github.com/taibuivan/ashaassist/pkg/pagination"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalVisits   int `json:"total_visits"`
	TotalPatients int `json:"total_patients"`
	TotalWorkers  int `json:"total_workers"`
}

// Service aggregates the domain repositories for administrators.
type Service struct {
	users    auth.UserRepository
	patients patient.Repository
	visits   visit.Repository
}

// NewService constructs a new [Service].
func NewService(users auth.UserRepository, patients patient.Repository, visits visit.Repository) *Service {
	return &Service{users: users, patients: patients, visits: visits}
}

/*
Stats counts visits, patients and accounts concurrently.

Workers are counted as all accounts, administrators included.

Parameters:
  - ctx: context.Context

Returns:
  - Stats: Dashboard totals
  - error: The first failing count cancels the others
*/
func (service *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	// Run the three counts in parallel
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		count, err := service.visits.Count(ctx)
		stats.TotalVisits = count
		return err
	})
	group.Go(func() error {
		count, err := service.patients.Count(ctx)
		stats.TotalPatients = count
		return err
	})
	group.Go(func() error {
		count, err := service.users.Count(ctx)
		stats.TotalWorkers = count
		return err
	})

	// Handle errors
	if err := group.Wait(); err != nil {
		return Stats{}, fmt.Errorf("admin_service_stats_failed: %w", err)
	}

	return stats, nil
}

// RecentVisits returns the ten most recently verified visits.
func (service *Service) RecentVisits(ctx context.Context) ([]visit.View, error) {
	visits, err := service.visits.ListRecentlyVerified(ctx, constants.AdminRecentVisitLimit)
	if err != nil {
		return nil, fmt.Errorf("admin_service_recent_visits_failed: %w", err)
	}
	return visit.NewViews(visits), nil
}

// # Users

/*
ListUsers returns a page of accounts with the total count.

The page and the count are read concurrently and may disagree by a row
under concurrent writes.

Parameters:
  - ctx: context.Context
  - page: pagination.Params

Returns:
  - []*auth.User: Current page
  - int: Total number of accounts
  - error: Query failures
*/
func (service *Service) ListUsers(ctx context.Context, page pagination.Params) ([]*auth.User, int, error) {
	var (
		users []*auth.User
		total int
	)

	// Fetch the page and the total together
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		users, err = service.users.List(ctx, page.Limit, page.Offset())
		return err
	})
	group.Go(func() (err error) {
		total, err = service.users.Count(ctx)
		return err
	})

	// Handle errors
	if err := group.Wait(); err != nil {
		return nil, 0, fmt.Errorf("admin_service_list_users_failed: %w", err)
	}

	return users, total, nil
}

// GetUser returns a single account.
func (service *Service) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	user, err := service.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("admin_service_get_user_failed: %w", err)
	}
	return user, nil
}

/*
UserVisits returns every visit created by an account, newest first.

Parameters:
  - ctx: context.Context
  - id: int64 (user ID)

Returns:
  - []visit.View: Visits without their one-time codes
  - error: NotFound for an unknown user, or query failures
*/
func (service *Service) UserVisits(ctx context.Context, id int64) ([]visit.View, error) {
	// 1. Unknown users are a 404, not an empty list
	if _, err := service.GetUser(ctx, id); err != nil {
		return nil, err
	}

	// 2. Load and project
	visits, err := service.visits.ListByOwnerID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("admin_service_user_visits_failed: %w", err)
	}
	return visit.NewViews(visits), nil
}

// # Patients

/*
ListPatients returns a page of patients with the total count.

The page and the count are read concurrently and may disagree by a row
under concurrent writes.

Parameters:
  - ctx: context.Context
  - page: pagination.Params

Returns:
  - []*patient.Patient: Current page
  - int: Total number of patients
  - error: Query failures
*/
func (service *Service) ListPatients(ctx context.Context, page pagination.Params) ([]*patient.Patient, int, error) {
	var (
		patients []*patient.Patient
		total    int
	)

	// Fetch the page and the total together
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		patients, err = service.patients.List(ctx, page.Limit, page.Offset())
		return err
	})
	group.Go(func() (err error) {
		total, err = service.patients.Count(ctx)
		return err
	})

	// Handle errors
	if err := group.Wait(); err != nil {
		return nil, 0, fmt.Errorf("admin_service_list_patients_failed: %w", err)
	}

	return patients, total, nil
}

// GetPatient returns a single patient.
func (service *Service) GetPatient(ctx context.Context, id int64) (*patient.Patient, error) {
	found, err := service.patients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("Patient")
		}
		return nil, fmt.Errorf("admin_service_get_patient_failed: %w", err)
	}
	return found, nil
}

/*
PatientVisits returns every visit for a patient, newest first.

Parameters:
  - ctx: context.Context
  - id: int64 (patient ID)

Returns:
  - []visit.View: Visits without their one-time codes
  - error: NotFound for an unknown patient, or query failures
*/
func (service *Service) PatientVisits(ctx context.Context, id int64) ([]visit.View, error) {
	// 1. Unknown patients are a 404, not an empty list
	if _, err := service.GetPatient(ctx, id); err != nil {
		return nil, err
	}

	// 2. Load and project
	visits, err := service.visits.ListByPatientID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("admin_service_patient_visits_failed: %w", err)
	}
	return visit.NewViews(visits), nil
}
