package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetByCode(ctx context.Context, code string) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// IsSlotTaken reports whether an active appointment holds the exact
		// (doctor, date, time) slot, ignoring excludeID when set.
		IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, at model.ClockTime, excludeID *uuid.UUID) (bool, error)
	}

	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		ListAvailability(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklyAvailability, error)
		ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, entries []*model.WeeklyAvailability) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByCode(ctx context.Context, code string) (*model.Patient, error)
	}

	TreatmentRepository interface {
		Create(ctx context.Context, treatment *model.Treatment) error
		ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Treatment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error)
	}

	// SequenceRepository backs the per-category identifier counters.
	SequenceRepository interface {
		// Next increments the counter and returns the new value. ok is false
		// when the category has not been seeded yet.
		Next(ctx context.Context, name string) (value int, ok bool, err error)
		// Seed creates the counter at value unless it already exists.
		Seed(ctx context.Context, name string, value int) error
		// LastIssued returns the highest code already stored for the category,
		// or "" when none exists.
		LastIssued(ctx context.Context, name string) (string, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
		// RequeueFailed puts FAILED events back to PENDING with a fresh retry budget.
		RequeueFailed(ctx context.Context) (int64, error)
	}

	StatsRepository interface {
		CountDoctors(ctx context.Context) (int, error)
		CountPatients(ctx context.Context) (int, error)
		CountDepartments(ctx context.Context) (int, error)
		CountTreatments(ctx context.Context) (int, error)
		// AppointmentStatusCounts groups appointments by status, for a single
		// doctor when doctorID is set.
		AppointmentStatusCounts(ctx context.Context, doctorID *uuid.UUID) ([]model.StatusCount, error)
	}

	// Repositories is the unit of work handed to core operations. Inside
	// Store.WithTx every repository shares the same transaction.
	Repositories interface {
		Appointments() AppointmentRepository
		Doctors() DoctorRepository
		Patients() PatientRepository
		Treatments() TreatmentRepository
		Sequences() SequenceRepository
		Outbox() OutboxRepository
	}

	Store interface {
		Repositories
		Stats() StatsRepository
		// WithTx runs fn in a transaction, committing only when fn returns nil.
		WithTx(ctx context.Context, fn func(Repositories) error) error
	}
)
