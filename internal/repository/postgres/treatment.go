package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
)

type treatmentRepository struct {
	BaseRepository
}

const treatmentColumns = `
	t.id, t.treatment_code, t.appointment_id, t.diagnosis, t.symptoms,
	t.prescription, t.treatment_plan, t.treatment_notes, t.follow_up_date,
	t.follow_up_instructions, t.created_at, t.updated_at`

func (r *treatmentRepository) Create(ctx context.Context, treatment *model.Treatment) error {
	query := `
		INSERT INTO treatments (
			id, treatment_code, appointment_id, diagnosis, symptoms,
			prescription, treatment_plan, treatment_notes, follow_up_date,
			follow_up_instructions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.ExecContext(ctx, query,
		treatment.ID,
		treatment.Code,
		treatment.AppointmentID,
		treatment.Diagnosis,
		treatment.Symptoms,
		treatment.Prescription,
		treatment.TreatmentPlan,
		treatment.Notes,
		treatment.FollowUpDate,
		treatment.FollowUpInstructions,
		treatment.CreatedAt,
		treatment.UpdatedAt,
	)
	return mapError(err, "create treatment")
}

func (r *treatmentRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Treatment, error) {
	query := `
		SELECT ` + treatmentColumns + `
		FROM treatments t
		WHERE t.appointment_id = $1
		ORDER BY t.created_at ASC
	`
	var treatments []*model.Treatment
	if err := sqlx.SelectContext(ctx, r.q, &treatments, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	return treatments, nil
}

func (r *treatmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error) {
	query := `
		SELECT ` + treatmentColumns + `
		FROM treatments t
		JOIN appointments a ON a.id = t.appointment_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC, a.appointment_time DESC
	`
	var treatments []*model.Treatment
	if err := sqlx.SelectContext(ctx, r.q, &treatments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient treatments: %w", err)
	}
	return treatments, nil
}
