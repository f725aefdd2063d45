// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/platform/postgres"
)

// # Visit Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db postgres.Querier
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectVisits = `
	SELECT v.id, v.asha_karmi_id, u.username, u.full_name,
	       v.patient_id, p.phone_number, p.full_name,
	       v.otp_code, v.otp_expires_at, v.is_verified, v.verified_at, v.created_at
	FROM visits v
	JOIN users u    ON u.id = v.asha_karmi_id
	JOIN patients p ON p.id = v.patient_id`

// FindByID retrieves a visit with its owner and patient projections.
func (repository *PostgresRepository) FindByID(ctx context.Context, id int64) (*Visit, error) {
	row := repository.db.QueryRow(ctx, selectVisits+` WHERE v.id = $1`, id)
	return scanVisit(row, "postgres_visit_repo_find_by_id_failed")
}

// Save inserts a new visit. The code, its expiry and the ownership are written once.
func (repository *PostgresRepository) Save(ctx context.Context, v *Visit) error {
	const insert = `
		INSERT INTO visits (asha_karmi_id, patient_id, otp_code, otp_expires_at, is_verified, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := repository.db.QueryRow(ctx, insert,
		v.OwnerID,
		v.PatientID,
		v.OTPCode,
		v.OTPExpiresAt,
		v.IsVerified,
		v.VerifiedAt,
		v.CreatedAt,
	).Scan(&v.ID)

	return dberr.Wrap(err, "postgres_visit_repo_insert_failed")
}

/*
MarkVerified sets is_verified and verified_at only while the row is still unverified.

Returns:
  - bool: true if the row changed, false if it was already verified
  - error: dberr.ErrNotFound when no visit has this ID
*/
func (repository *PostgresRepository) MarkVerified(ctx context.Context, id int64, verifiedAt time.Time) (bool, error) {
	const update = `UPDATE visits SET is_verified = TRUE, verified_at = $2 WHERE id = $1 AND NOT is_verified`

	// 1. Conditional transition
	tag, err := repository.db.Exec(ctx, update, id, verifiedAt)
	if err != nil {
		return false, dberr.Wrap(err, "postgres_visit_repo_mark_verified_failed")
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// 2. Tell an already verified visit apart from a missing one
	var exists bool
	err = repository.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visits WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, dberr.Wrap(err, "postgres_visit_repo_mark_verified_lookup_failed")
	}
	if !exists {
		return false, dberr.ErrNotFound
	}

	return false, nil
}

// ListRecentByOwner returns the owner's newest visits.
func (repository *PostgresRepository) ListRecentByOwner(ctx context.Context, username string, limit int) ([]*Visit, error) {
	query := selectVisits + ` WHERE u.username = $1 ORDER BY v.created_at DESC, v.id DESC LIMIT $2`
	return repository.list(ctx, "postgres_visit_repo_list_recent_by_owner_failed", query, username, limit)
}

// ListRecentlyVerified returns the most recently verified visits across all workers.
func (repository *PostgresRepository) ListRecentlyVerified(ctx context.Context, limit int) ([]*Visit, error) {
	query := selectVisits + ` WHERE v.is_verified ORDER BY v.verified_at DESC, v.id DESC LIMIT $1`
	return repository.list(ctx, "postgres_visit_repo_list_recently_verified_failed", query, limit)
}

// ListByOwnerID returns every visit created by a worker.
func (repository *PostgresRepository) ListByOwnerID(ctx context.Context, ownerID int64) ([]*Visit, error) {
	query := selectVisits + ` WHERE v.asha_karmi_id = $1 ORDER BY v.created_at DESC`
	return repository.list(ctx, "postgres_visit_repo_list_by_owner_failed", query, ownerID)
}

// ListByPatientID returns every visit to a patient.
func (repository *PostgresRepository) ListByPatientID(ctx context.Context, patientID int64) ([]*Visit, error) {
	query := selectVisits + ` WHERE v.patient_id = $1 ORDER BY v.created_at DESC`
	return repository.list(ctx, "postgres_visit_repo_list_by_patient_failed", query, patientID)
}

// Count returns the total number of visits.
func (repository *PostgresRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := repository.db.QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total)
	return total, dberr.Wrap(err, "postgres_visit_repo_count_failed")
}

func (repository *PostgresRepository) list(ctx context.Context, action, query string, args ...any) ([]*Visit, error) {
	rows, err := repository.db.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	visits := make([]*Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows, action)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}

	return visits, dberr.Wrap(rows.Err(), action)
}

func scanVisit(row pgx.Row, action string) (*Visit, error) {
	v := &Visit{}
	err := row.Scan(
		&v.ID,
		&v.OwnerID,
		&v.OwnerUsername,
		&v.OwnerFullName,
		&v.PatientID,
		&v.PatientPhone,
		&v.PatientName,
		&v.OTPCode,
		&v.OTPExpiresAt,
		&v.IsVerified,
		&v.VerifiedAt,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return v, nil
}

// # Medical Record Repository

// PostgresRecordRepository implements [RecordRepository] using pgx.
type PostgresRecordRepository struct {
	db postgres.Querier
}

// NewRecordRepository creates a new PostgreSQL implementation of the RecordRepository.
func NewRecordRepository(db postgres.Querier) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

// FindByVisitID retrieves the medical record attached to a visit.
func (repository *PostgresRecordRepository) FindByVisitID(ctx context.Context, visitID int64) (*MedicalRecord, error) {
	const query = `
		SELECT id, encounter_id, raw_transcript, structured_data, created_at
		FROM medical_records
		WHERE encounter_id = $1`

	record := &MedicalRecord{}
	var structured []byte

	err := repository.db.QueryRow(ctx, query, visitID).Scan(
		&record.ID,
		&record.VisitID,
		&record.RawTranscript,
		&structured,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_record_repo_find_by_visit_failed")
	}

	if len(structured) > 0 {
		record.StructuredData = json.RawMessage(structured)
	}

	return record, nil
}
