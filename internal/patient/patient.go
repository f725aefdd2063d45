// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package patient manages the people field workers visit.

A patient is keyed by phone number: the same number always resolves to the
same record, and it is also where the visit's one-time code is sent.
*/
package patient

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// # Domain Entities

// Patient is a person registered by a field worker during a first visit.
type Patient struct {
	ID          int64      `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Address     string     `json:"address,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Summary is the public projection embedded in visit responses.
type Summary struct {
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
}

// Summary returns the public projection of the patient.
func (p *Patient) Summary() Summary {
	return Summary{PhoneNumber: p.PhoneNumber, FullName: p.FullName}
}

// Details holds the optional fields supplied when a visit introduces a new patient.
type Details struct {
	FullName    string
	DateOfBirth *time.Time
	Gender      string
	Address     string
}

// HasName reports whether the details carry the one mandatory field.
func (d Details) HasName() bool {
	return strings.TrimSpace(d.FullName) != ""
}

// New builds an unsaved patient from its key and details.
//
// Names are NFC-normalized so that the same name typed on different
// keyboards (precomposed or combining Devanagari marks) compares equal.
func New(phoneNumber string, details Details) *Patient {
	return &Patient{
		PhoneNumber: strings.TrimSpace(phoneNumber),
		FullName:    norm.NFC.String(strings.TrimSpace(details.FullName)),
		DateOfBirth: details.DateOfBirth,
		Gender:      strings.ToUpper(strings.TrimSpace(details.Gender)),
		Address:     strings.TrimSpace(details.Address),
	}
}

// # Field Identifiers

const (
	FieldPhoneNumber = "phone_number"
	FieldFullName    = "full_name"
	FieldDateOfBirth = "date_of_birth"
	FieldGender      = "gender"
)

// Column limits.
const (
	PhoneMaxLength    = 20
	FullNameMaxLength = 150
)

// Genders accepted on registration.
var Genders = []string{"FEMALE", "MALE", "OTHER"}
