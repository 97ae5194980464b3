package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/pkg/errors"
)

type appointmentRepository struct {
	BaseRepository
}

const appointmentColumns = `
	id, appointment_code, doctor_id, patient_id,
	appointment_date, appointment_time, status, appointment_type,
	reason, notes, priority, estimated_duration, cancel_reason,
	created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.q.ExecContext(ctx, query,
		appointment.ID,
		appointment.Code,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Type,
		appointment.Reason,
		appointment.Notes,
		appointment.Priority,
		appointment.EstimatedDuration,
		appointment.CancelReason,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	return mapError(err, "create appointment")
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := sqlx.GetContext(ctx, r.q, &appointment, query, id); err != nil {
		return nil, notFound(err, "appointment", "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetByCode(ctx context.Context, code string) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_code = $1`

	var appointment model.Appointment
	if err := sqlx.GetContext(ctx, r.q, &appointment, query, code); err != nil {
		return nil, notFound(err, "appointment", "get appointment")
	}
	return &appointment, nil
}

// Update writes the mutable columns. The code, doctor and patient of an
// appointment never change.
func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_date = $1, appointment_time = $2, status = $3,
			notes = $4, cancel_reason = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.q.ExecContext(ctx, query,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return mapError(err, "update appointment")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []interface{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.From != nil {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, *filters.From)
			argCount++
		}
		if filters.To != nil {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, *filters.To)
			argCount++
		}
	}

	query += " ORDER BY appointment_date ASC, appointment_time ASC"

	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.q, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, at model.ClockTime, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND appointment_time = $3
			AND status IN ` + activeStatuses + `
			AND ($4::uuid IS NULL OR id <> $4)
		)
	`
	var taken bool
	if err := sqlx.GetContext(ctx, r.q, &taken, query, doctorID, date, at, excludeID); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return taken, nil
}
