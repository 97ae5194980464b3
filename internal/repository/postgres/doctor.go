package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
)

type doctorRepository struct {
	BaseRepository
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, user_id, department_id, license_number, name, email,
			   specialization, experience_years, is_available,
			   created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	if err := sqlx.GetContext(ctx, r.q, &doctor, query, id); err != nil {
		return nil, notFound(err, "doctor", "get doctor")
	}
	return &doctor, nil
}

func (r *doctorRepository) ListAvailability(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklyAvailability, error) {
	query := `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_available
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY day_of_week ASC, start_time ASC
	`
	var entries []*model.WeeklyAvailability
	if err := sqlx.SelectContext(ctx, r.q, &entries, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return entries, nil
}

// ReplaceAvailability swaps the whole weekly pattern of a doctor.
func (r *doctorRepository) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, entries []*model.WeeklyAvailability) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM doctor_availability WHERE doctor_id = $1`, doctorID); err != nil {
		return mapError(err, "clear availability")
	}

	query := `
		INSERT INTO doctor_availability (
			id, doctor_id, day_of_week, start_time, end_time, is_available
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range entries {
		if _, err := r.q.ExecContext(ctx, query,
			e.ID, doctorID, e.DayOfWeek, e.StartTime, e.EndTime, e.IsAvailable,
		); err != nil {
			return mapError(err, "insert availability")
		}
	}
	return nil
}
