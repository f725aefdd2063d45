// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package patient

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/ashaassist/internal/platform/dberr"
	"github.com/taibuivan/ashaassist/internal/platform/postgres"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db postgres.Querier
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(db postgres.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const patientColumns = `id, phone_number, full_name, date_of_birth, gender, address, created_at`

// FindByPhone retrieves a patient by their unique phone number.
func (repository *PostgresRepository) FindByPhone(ctx context.Context, phoneNumber string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE phone_number = $1`
	return scanPatient(repository.db.QueryRow(ctx, query, phoneNumber), "postgres_patient_repo_find_by_phone_failed")
}

// FindByID retrieves a patient by primary key.
func (repository *PostgresRepository) FindByID(ctx context.Context, id int64) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return scanPatient(repository.db.QueryRow(ctx, query, id), "postgres_patient_repo_find_by_id_failed")
}

// Save inserts a new patient row.
func (repository *PostgresRepository) Save(ctx context.Context, patient *Patient) error {
	const query = `
		INSERT INTO patients (phone_number, full_name, date_of_birth, gender, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := repository.db.QueryRow(ctx, query,
		patient.PhoneNumber,
		patient.FullName,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
	).Scan(&patient.ID, &patient.CreatedAt)

	return dberr.Wrap(err, "postgres_patient_repo_save_failed")
}

// Count returns the total number of patients.
func (repository *PostgresRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := repository.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total)
	return total, dberr.Wrap(err, "postgres_patient_repo_count_failed")
}

// List returns a page of patients ordered by ID.
func (repository *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := repository.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_patient_repo_list_failed")
	}
	defer rows.Close()

	patients := make([]*Patient, 0, limit)
	for rows.Next() {
		patient, err := scanPatient(rows, "postgres_patient_repo_list_scan_failed")
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}

	return patients, dberr.Wrap(rows.Err(), "postgres_patient_repo_list_failed")
}

func scanPatient(row pgx.Row, action string) (*Patient, error) {
	patient := &Patient{}
	err := row.Scan(
		&patient.ID,
		&patient.PhoneNumber,
		&patient.FullName,
		&patient.DateOfBirth,
		&patient.Gender,
		&patient.Address,
		&patient.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return patient, nil
}
