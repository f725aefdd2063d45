// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/apperr"
	"github.com/taibuivan/ashaassist/internal/platform/metrics"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
	"github.com/taibuivan/ashaassist/internal/visit"
)

const fixedCode = "004213"

var (
	workerA = sec.Principal{Username: "asha1", Role: sec.RoleWorker}
	workerB = sec.Principal{Username: "asha2", Role: sec.RoleWorker}
	admin   = sec.Principal{Username: "root", Role: sec.RoleAdmin}
)

type fixture struct {
	service  *visit.Service
	visits   *memoryVisits
	patients *memoryPatients
	records  *memoryRecords
	sender   *recordingSender
	clock    *fakeClock
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		visits:   newMemoryVisits(),
		patients: newMemoryPatients(),
		records:  &memoryRecords{byVisit: make(map[int64]*visit.MedicalRecord)},
		sender:   &recordingSender{},
		clock:    &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}

	users := staticUsers{
		"asha1": {ID: 1, Username: "asha1", FullName: "Sunita Devi", Role: sec.RoleWorker},
		"asha2": {ID: 2, Username: "asha2", FullName: "Meena Kumari", Role: sec.RoleWorker},
		"root":  {ID: 3, Username: "root", FullName: "District Admin", Role: sec.RoleAdmin},
	}

	f.service = visit.NewService(f.visits, f.records, f.patients, users, f.sender, f.metrics).
		WithClock(f.clock.Now).
		WithCodeGenerator(func() (string, error) { return fixedCode, nil })

	return f
}

func (f *fixture) start(t *testing.T, principal sec.Principal, phone string) *visit.Visit {
	t.Helper()
	created, err := f.service.Start(context.Background(), principal, visit.StartInput{
		PatientPhone: phone,
		Patient:      patient.Details{FullName: "Test Patient"},
	})
	require.NoError(t, err)
	return created
}

/*
TestService_VisitLifecycle walks a visit from start through verification and expiry.
*/
func TestService_VisitLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 1. Start a visit for a new patient
	created := f.start(t, workerA, "+910000000001")
	require.NotZero(t, created.ID)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "+910000000001", f.sender.sent[0].destination)
	assert.Equal(t, "Your Asha Assist verification code is: "+fixedCode, f.sender.sent[0].message)

	stored, err := f.visits.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, visit.StateCreated, stored.State())
	assert.False(t, stored.IsVerified)
	assert.Nil(t, stored.VerifiedAt)
	assert.Equal(t, stored.CreatedAt.Add(5*time.Minute), stored.OTPExpiresAt)
	assert.Equal(t, "Test Patient", stored.PatientName)
	assert.Equal(t, "asha1", stored.OwnerUsername)

	// 2. Correct code inside the window
	f.clock.Advance(time.Minute)
	ok, err := f.service.Verify(ctx, created.ID, fixedCode)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err = f.visits.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerifiedAt)
	firstVerifiedAt := *stored.VerifiedAt
	assert.Equal(t, visit.StateVerified, stored.State())
	assert.Equal(t, f.clock.Now(), firstVerifiedAt)

	// 3. Replay inside the window is accepted without moving VerifiedAt
	f.clock.Advance(time.Minute)
	ok, err = f.service.Verify(ctx, created.ID, fixedCode)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err = f.visits.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, firstVerifiedAt, *stored.VerifiedAt)

	// 4. After expiry the same code is rejected
	f.clock.Advance(5 * time.Minute)
	ok, err = f.service.Verify(ctx, created.ID, fixedCode)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VisitsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.OTPVerifications.WithLabelValues(metrics.ResultVerified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OTPVerifications.WithLabelValues(metrics.ResultRejected)))
}

/*
TestService_Verify_ExpiryBoundary checks that the expiry instant itself is still
accepted, and that a rejected code never changes the visit.
*/
func TestService_Verify_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		code    string
		want    bool
	}{
		{"just_before", 5*time.Minute - time.Nanosecond, fixedCode, true},
		{"exactly_at_expiry", 5 * time.Minute, fixedCode, true},
		{"just_after", 5*time.Minute + time.Nanosecond, fixedCode, false},
		{"wrong_code_at_expiry", 5 * time.Minute, "000000", false},
		{"wrong_code_after_expiry", 5*time.Minute + time.Second, "000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			created := f.start(t, workerA, "+910000000001")

			// 1. Submit the code at the given offset
			f.clock.Advance(tt.elapsed)
			ok, err := f.service.Verify(context.Background(), created.ID, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			// 2. The stored state follows the outcome
			stored := f.visits.stored(created.ID)
			assert.Equal(t, tt.want, stored.IsVerified)
			if tt.want {
				require.NotNil(t, stored.VerifiedAt)
				assert.Equal(t, f.clock.Now(), *stored.VerifiedAt)
			} else {
				assert.Nil(t, stored.VerifiedAt)
				assert.Equal(t, visit.StateCreated, stored.State())
			}
		})
	}
}

/*
TestService_Verify_StaleRead verifies that a replay decided on an outdated,
still unverified copy of the visit does not move VerifiedAt.
*/
func TestService_Verify_StaleRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.start(t, workerA, "+910000000001")

	stale := newStaleVisits(f.visits)
	service := visit.NewService(stale, f.records, f.patients, staticUsers{}, f.sender, f.metrics).
		WithClock(f.clock.Now)

	// 1. Freeze the unverified copy
	snapshot, err := stale.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, snapshot.IsVerified)

	// 2. First verification at 09:01
	f.clock.Advance(time.Minute)
	ok, err := service.Verify(ctx, created.ID, fixedCode)
	require.NoError(t, err)
	assert.True(t, ok)
	firstVerifiedAt := f.clock.Now()

	// 3. Replay at 09:02 still reads the unverified copy
	f.clock.Advance(time.Minute)
	ok, err = service.Verify(ctx, created.ID, fixedCode)
	require.NoError(t, err)
	assert.True(t, ok)

	// 4. The stored transition happened once
	stored := f.visits.stored(created.ID)
	assert.True(t, stored.IsVerified)
	require.NotNil(t, stored.VerifiedAt)
	assert.Equal(t, firstVerifiedAt, *stored.VerifiedAt)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.OTPVerifications.WithLabelValues(metrics.ResultVerified)))
}

/*
TestService_Verify_WrongCode verifies that a wrong code leaves the visit unverified.
*/
func TestService_Verify_WrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.start(t, workerA, "+910000000001")

	for _, code := range []string{"000000", "00421", "", "0042130"} {
		ok, err := f.service.Verify(ctx, created.ID, code)
		require.NoError(t, err)
		assert.False(t, ok, "code %q", code)
	}

	stored, err := f.visits.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	assert.Nil(t, stored.VerifiedAt)

	// The correct code still works afterwards; nothing was consumed.
	ok, err := f.service.Verify(ctx, created.ID, fixedCode)
	require.NoError(t, err)
	assert.True(t, ok)
}

/*
TestService_Verify_NotFound verifies that an unknown visit is a NOT_FOUND error, not false.
*/
func TestService_Verify_NotFound(t *testing.T) {
	f := newFixture(t)

	ok, err := f.service.Verify(context.Background(), 999, fixedCode)
	assert.False(t, ok)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestService_Start_DeliveryFailure verifies that no visit exists when the SMS cannot be sent.
*/
func TestService_Start_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("provider unavailable")

	_, err := f.service.Start(context.Background(), workerA, visit.StartInput{
		PatientPhone: "+910000000001",
		Patient:      patient.Details{FullName: "Test Patient"},
	})

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeDeliveryFailed))

	count, countErr := f.visits.Count(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OTPDeliveryFailures))
	assert.Zero(t, testutil.ToFloat64(f.metrics.VisitsStarted))
}

/*
TestService_Start_DeliveryTimeout verifies that a provider that never answers counts as a failure.
*/
func TestService_Start_DeliveryTimeout(t *testing.T) {
	f := newFixture(t)
	users := staticUsers{"asha1": {ID: 1, Username: "asha1", Role: sec.RoleWorker}}

	service := visit.NewService(f.visits, f.records, f.patients, users, blockingSender{}, f.metrics).
		WithClock(f.clock.Now).
		WithDeliveryTimeout(20 * time.Millisecond)

	_, err := service.Start(context.Background(), workerA, visit.StartInput{
		PatientPhone: "+910000000001",
		Patient:      patient.Details{FullName: "Test Patient"},
	})

	assert.True(t, apperr.HasCode(err, apperr.CodeDeliveryFailed))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	count, countErr := f.visits.Count(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

/*
TestService_Start_PatientResolution covers new, existing and nameless patients.
*/
func TestService_Start_PatientResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_name_for_new_patient", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Start(ctx, workerA, visit.StartInput{PatientPhone: "+910000000009"})

		assert.True(t, apperr.HasCode(err, apperr.CodeMissingRequiredField))
		assert.Empty(t, f.sender.sent)
		count, _ := f.visits.Count(ctx)
		assert.Zero(t, count)
	})

	t.Run("existing_patient_needs_no_details", func(t *testing.T) {
		f := newFixture(t)
		first := f.start(t, workerA, "+910000000001")

		second, err := f.service.Start(ctx, workerB, visit.StartInput{PatientPhone: "+910000000001"})
		require.NoError(t, err)

		assert.Equal(t, first.PatientID, second.PatientID)
		assert.NotEqual(t, first.ID, second.ID)
		patients, _ := f.patients.Count(ctx)
		assert.Equal(t, 1, patients)
	})

	t.Run("name_is_normalized", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.service.Start(ctx, workerA, visit.StartInput{
			PatientPhone: "+910000000002",
			Patient:      patient.Details{FullName: "  Renée  ", Gender: "female"},
		})
		require.NoError(t, err)

		stored, err := f.patients.FindByID(ctx, created.PatientID)
		require.NoError(t, err)
		assert.Equal(t, "Renée", stored.FullName)
		assert.Equal(t, "FEMALE", stored.Gender)
	})
}

/*
TestService_ListRecentForWorker verifies the newest-first cap of five and owner scoping.
*/
func TestService_ListRecentForWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 1. Seven visits by A, one by B
	var ids []int64
	for range 7 {
		ids = append(ids, f.start(t, workerA, "+910000000001").ID)
		f.clock.Advance(time.Minute)
	}
	f.start(t, workerB, "+910000000001")

	// 2. Only A's five newest
	recent, err := f.service.ListRecentForWorker(ctx, "asha1")
	require.NoError(t, err)
	require.Len(t, recent, 5)

	for i, v := range recent {
		assert.Equal(t, ids[len(ids)-1-i], v.ID)
		assert.Equal(t, "asha1", v.OwnerUsername)
	}

	none, err := f.service.ListRecentForWorker(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

/*
TestService_Get_Ownership verifies that only the owner and admins can read a visit.
*/
func TestService_Get_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.start(t, workerA, "+910000000001")
	f.records.byVisit[created.ID] = &visit.MedicalRecord{
		ID:             7,
		VisitID:        created.ID,
		RawTranscript:  "Patient reports mild fever.",
		StructuredData: json.RawMessage(`{"symptoms":["fever"]}`),
	}

	// 1. Owner
	view, err := f.service.Get(ctx, workerA, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, "asha1", view.Worker.Username)
	require.NotNil(t, view.MedicalRecord)
	assert.Equal(t, "Patient reports mild fever.", view.MedicalRecord.RawTranscript)

	// 2. Another worker
	_, err = f.service.Get(ctx, workerB, created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeAccessDenied))

	// 3. Admin
	view, err = f.service.Get(ctx, admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)

	// 4. Missing visit
	_, err = f.service.Get(ctx, admin, 999)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestService_Get_WithoutRecord verifies that a visit with no transcription yet is still readable.
*/
func TestService_Get_WithoutRecord(t *testing.T) {
	f := newFixture(t)
	created := f.start(t, workerA, "+910000000001")

	view, err := f.service.Get(context.Background(), workerA, created.ID)
	require.NoError(t, err)
	assert.Nil(t, view.MedicalRecord)
	assert.Equal(t, visit.StateCreated, view.Status)
}

/*
TestView_HidesCode verifies that the serialized view never carries the one-time code.
*/
func TestView_HidesCode(t *testing.T) {
	v := &visit.Visit{ID: 1, OTPCode: fixedCode, OwnerUsername: "asha1", CreatedAt: time.Now()}

	encoded, err := json.Marshal(visit.NewView(v, nil))
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), fixedCode)
	assert.Contains(t, string(encoded), `"asha_karmi"`)
}
