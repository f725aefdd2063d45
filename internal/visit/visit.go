// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package visit owns the lifecycle of a field visit.

A visit is created only after its one-time code has been handed to the SMS
provider, and becomes verified when the patient's code is submitted before it
expires.

	CREATED ──(correct code, now <= OTPExpiresAt)──▶ VERIFIED

There is no other transition. A failed verification leaves the visit in
CREATED; the code is never regenerated.
*/
package visit

import (
	"encoding/json"
	"time"

	"github.com/taibuivan/ashaassist/internal/patient"
	"github.com/taibuivan/ashaassist/internal/platform/sec"
	"github.com/taibuivan/ashaassist/internal/users/auth"
)

// # States

// State is the verification state of a visit.
type State string

const (
	StateCreated  State = "CREATED"
	StateVerified State = "VERIFIED"
)

// # Domain Entities

// Visit is a single field visit by a worker to a patient.
//
// Owner and patient display fields are read-only projections filled by the
// store on reads.
type Visit struct {
	ID int64

	OwnerID       int64
	OwnerUsername string
	OwnerFullName string

	PatientID    int64
	PatientPhone string
	PatientName  string

	OTPCode      string
	OTPExpiresAt time.Time
	IsVerified   bool
	VerifiedAt   *time.Time
	CreatedAt    time.Time
}

// State derives the lifecycle state from the verification flag.
func (v *Visit) State() State {
	if v.IsVerified {
		return StateVerified
	}
	return StateCreated
}

// Accepts reports whether code verifies the visit at instant now.
//
// The expiry bound is inclusive. A wrong code and an expired code are not
// distinguished. The code is not consumed, so an already verified visit still
// accepts its code until expiry.
func (v *Visit) Accepts(code string, now time.Time) bool {
	if now.After(v.OTPExpiresAt) {
		return false
	}
	return sec.EqualCodes(code, v.OTPCode)
}

// MedicalRecord holds the transcription output attached to a visit.
//
// It is written by the transcription pipeline; this service only reads it.
type MedicalRecord struct {
	ID             int64           `json:"id"`
	VisitID        int64           `json:"-"`
	RawTranscript  string          `json:"raw_transcript"`
	StructuredData json.RawMessage `json:"structured_data,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// # Views

// View is the client-facing projection of a visit. The one-time code is never part of it.
type View struct {
	ID            int64           `json:"id"`
	Status        State           `json:"status"`
	IsVerified    bool            `json:"is_verified"`
	VerifiedAt    *time.Time      `json:"verified_at"`
	CreatedAt     time.Time       `json:"created_at"`
	Patient       patient.Summary `json:"patient"`
	Worker        auth.Summary    `json:"asha_karmi"`
	MedicalRecord *MedicalRecord  `json:"medical_record,omitempty"`
}

// NewView projects a visit for API responses.
func NewView(v *Visit, record *MedicalRecord) View {
	return View{
		ID:            v.ID,
		Status:        v.State(),
		IsVerified:    v.IsVerified,
		VerifiedAt:    v.VerifiedAt,
		CreatedAt:     v.CreatedAt,
		Patient:       patient.Summary{PhoneNumber: v.PatientPhone, FullName: v.PatientName},
		Worker:        auth.Summary{Username: v.OwnerUsername, FullName: v.OwnerFullName},
		MedicalRecord: record,
	}
}

// NewViews projects a list of visits without medical records.
func NewViews(visits []*Visit) []View {
	views := make([]View, 0, len(visits))
	for _, v := range visits {
		views = append(views, NewView(v, nil))
	}
	return views
}

// # Field Identifiers

const (
	FieldPatientPhone = "patient_phone_number"
	FieldFullName     = "full_name"
	FieldDateOfBirth  = "date_of_birth"
	FieldGender       = "gender"
	FieldVisitID      = "visit_id"
	FieldOTP          = "otp"
)
