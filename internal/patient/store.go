// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patient

import "context"

// Repository defines the data access contract for patients.
//
// Find operations return [dberr.ErrNotFound] when no patient matches.
type Repository interface {
	FindByPhone(ctx context.Context, phoneNumber string) (*Patient, error)
	FindByID(ctx context.Context, id int64) (*Patient, error)

	// Save inserts the patient and assigns its ID and CreatedAt.
	Save(ctx context.Context, patient *Patient) error

	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, error)
}
