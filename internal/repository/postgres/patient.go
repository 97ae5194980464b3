package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
)

type patientRepository struct {
	BaseRepository
}

const patientColumns = `
	id, user_id, patient_code, name, email, phone, date_of_birth,
	gender, blood_group, address, is_active, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.q.ExecContext(ctx, query,
		patient.ID,
		patient.UserID,
		patient.Code,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.Gender,
		patient.BloodGroup,
		patient.Address,
		patient.IsActive,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	return mapError(err, "create patient")
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &patient, query, id); err != nil {
		return nil, notFound(err, "patient", "get patient")
	}
	return &patient, nil
}

func (r *patientRepository) GetByCode(ctx context.Context, code string) (*model.Patient, error) {
	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE patient_code = $1`
	if err := sqlx.GetContext(ctx, r.q, &patient, query, code); err != nil {
		return nil, notFound(err, "patient", "get patient")
	}
	return &patient, nil
}
