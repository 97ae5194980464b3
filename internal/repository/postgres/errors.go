package postgres

import (
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-api/pkg/errors"
)

// Constraint names from migrations/0001_scheduling.sql.
const (
	constraintActiveSlot      = "appointments_active_slot_idx"
	constraintAvailabilityKey = "doctor_availability_doctor_day_start_key"
	constraintPatientEmail    = "patients_email_key"
	pqUniqueViolation         = "23505"
	pqForeignKeyViolation     = "23503"
)

// mapError translates driver errors into application errors. Unknown
// errors are wrapped with op and left for the caller to report as internal.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			switch pqErr.Constraint {
			case constraintActiveSlot:
				return errors.SlotConflict("", err)
			case constraintAvailabilityKey:
				return errors.Validation("duplicate availability entry for day and start time", err)
			case constraintPatientEmail:
				return errors.Validation("email already registered", err)
			}
		case pqForeignKeyViolation:
			return errors.Validation(fmt.Sprintf("%s references a missing record", op), err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// notFound maps sql.ErrNoRows to a NotFound error for resource.
func notFound(err error, resource, op string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource, nil)
	}
	return mapError(err, op)
}
