package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
)

type statsRepository struct {
	BaseRepository
}

func (r *statsRepository) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM `+table); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (r *statsRepository) CountDoctors(ctx context.Context) (int, error) {
	return r.count(ctx, "doctors")
}

func (r *statsRepository) CountPatients(ctx context.Context) (int, error) {
	return r.count(ctx, "patients")
}

func (r *statsRepository) CountDepartments(ctx context.Context) (int, error) {
	return r.count(ctx, "departments")
}

func (r *statsRepository) CountTreatments(ctx context.Context) (int, error) {
	return r.count(ctx, "treatments")
}

func (r *statsRepository) AppointmentStatusCounts(ctx context.Context, doctorID *uuid.UUID) ([]model.StatusCount, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM appointments
		WHERE ($1::uuid IS NULL OR doctor_id = $1)
		GROUP BY status
	`
	var rows []model.StatusCount
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to count appointments by status: %w", err)
	}
	return rows, nil
}
