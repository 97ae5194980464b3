package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/repository"
)

type repositories struct {
	base BaseRepository
}

func newRepositories(q sqlx.ExtContext) repositories {
	return repositories{base: NewBaseRepository(q)}
}

func (r repositories) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{r.base}
}

func (r repositories) Doctors() repository.DoctorRepository {
	return &doctorRepository{r.base}
}

func (r repositories) Patients() repository.PatientRepository {
	return &patientRepository{r.base}
}

func (r repositories) Treatments() repository.TreatmentRepository {
	return &treatmentRepository{r.base}
}

func (r repositories) Sequences() repository.SequenceRepository {
	return &sequenceRepository{r.base}
}

func (r repositories) Outbox() repository.OutboxRepository {
	return &outboxRepository{r.base}
}

// Store is the PostgreSQL implementation of repository.Store. Repositories
// obtained from it directly run against the pool; those handed to WithTx
// share one transaction.
type Store struct {
	repositories
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		repositories: newRepositories(db),
		db:           db,
	}
}

// DB returns the database instance
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Stats() repository.StatsRepository {
	return &statsRepository{s.base}
}

// WithTx executes fn within a transaction. Any error or panic from fn rolls
// the transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newRepositories(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "commit transaction")
	}
	return nil
}

var _ repository.Store = (*Store)(nil)
