// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit

import (
	"context"
	"time"
)

// Repository defines the data access contract for visits.
//
// Find operations return [dberr.ErrNotFound] when no visit matches.
type Repository interface {

	/*
		FindByID returns the visit with owner and patient projections.

		Returns:
		  - *Visit: Hydrated entity
		  - error: dberr.ErrNotFound or database retrieval failures
	*/
	FindByID(ctx context.Context, id int64) (*Visit, error)

	// Save inserts a new visit and assigns its ID.
	Save(ctx context.Context, v *Visit) error

	/*
		MarkVerified moves the visit to VERIFIED unless it already is.

		The transition is conditional on the stored row, never on a previously
		read copy, so VerifiedAt is written at most once.

		Returns:
		  - bool: true if this call performed the transition
		  - error: dberr.ErrNotFound or database failures
	*/
	MarkVerified(ctx context.Context, id int64, verifiedAt time.Time) (bool, error)

	// ListRecentByOwner returns the owner's visits, newest first.
	ListRecentByOwner(ctx context.Context, username string, limit int) ([]*Visit, error)

	// ListRecentlyVerified returns verified visits, most recently verified first.
	ListRecentlyVerified(ctx context.Context, limit int) ([]*Visit, error)

	ListByOwnerID(ctx context.Context, ownerID int64) ([]*Visit, error)
	ListByPatientID(ctx context.Context, patientID int64) ([]*Visit, error)
	Count(ctx context.Context) (int, error)
}

// RecordRepository reads transcription output.
type RecordRepository interface {
	// FindByVisitID returns dberr.ErrNotFound when the visit has no record yet.
	FindByVisitID(ctx context.Context, visitID int64) (*MedicalRecord, error)
}
