// Package repotest provides an in-memory repository.Store for tests. It
// enforces the same uniqueness rules as the Postgres schema and rolls back
// every write made inside a failed WithTx call.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/errors"
)

type state struct {
	appointments map[uuid.UUID]model.Appointment
	doctors      map[uuid.UUID]model.Doctor
	availability map[uuid.UUID][]model.WeeklyAvailability
	patients     map[uuid.UUID]model.Patient
	treatments   map[uuid.UUID]model.Treatment
	sequences    map[string]int
	outbox       []model.OutboxEvent
	departments  int
}

func newState() *state {
	return &state{
		appointments: make(map[uuid.UUID]model.Appointment),
		doctors:      make(map[uuid.UUID]model.Doctor),
		availability: make(map[uuid.UUID][]model.WeeklyAvailability),
		patients:     make(map[uuid.UUID]model.Patient),
		treatments:   make(map[uuid.UUID]model.Treatment),
		sequences:    make(map[string]int),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.availability {
		c.availability[k] = append([]model.WeeklyAvailability(nil), v...)
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.treatments {
		c.treatments[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	c.outbox = append([]model.OutboxEvent(nil), s.outbox...)
	c.departments = s.departments
	return c
}

// Store is an in-memory repository.Store. Transactions are serialized.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *state

	failures map[string]error
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data:     newState(),
		failures: make(map[string]error),
	}
}

// FailOn makes the named operation (for example "treatments.create") return
// err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		rollback()
		return err
	}
	return nil
}

func (s *Store) Appointments() repository.AppointmentRepository { return appointments{s} }
func (s *Store) Doctors() repository.DoctorRepository           { return doctors{s} }
func (s *Store) Patients() repository.PatientRepository         { return patients{s} }
func (s *Store) Treatments() repository.TreatmentRepository     { return treatments{s} }
func (s *Store) Sequences() repository.SequenceRepository       { return sequences{s} }
func (s *Store) Outbox() repository.OutboxRepository            { return outbox{s} }
func (s *Store) Stats() repository.StatsRepository              { return stats{s} }

// Seeding helpers

func (s *Store) AddDoctor(d model.Doctor) *model.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Touch(time.Now())
	s.data.doctors[d.ID] = d
	return &d
}

func (s *Store) AddPatient(p model.Patient) *model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Touch(time.Now())
	s.data.patients[p.ID] = p
	return &p
}

// PutAppointment stores a as-is, bypassing uniqueness checks.
func (s *Store) PutAppointment(a model.Appointment) *model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.data.appointments[a.ID] = a
	return &a
}

func (s *Store) AddDepartments(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.departments += n
}

// Events returns a copy of every outbox event written so far.
func (s *Store) Events() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OutboxEvent(nil), s.data.outbox...)
}

func (s *Store) TreatmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.treatments)
}

type appointments struct{ s *Store }

func (r appointments) Create(ctx context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("appointments.create"); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := r.checkUnique(a); err != nil {
		return err
	}
	r.s.data.appointments[a.ID] = *a
	return nil
}

func (r appointments) checkUnique(a *model.Appointment) error {
	for id, other := range r.s.data.appointments {
		if id == a.ID {
			continue
		}
		if other.Code == a.Code {
			return fmt.Errorf("duplicate appointment code %s", a.Code)
		}
		if a.Status.IsActive() && other.Status.IsActive() &&
			other.DoctorID == a.DoctorID && other.Date == a.Date && other.Time == a.Time {
			return errors.SlotConflict("", fmt.Errorf("active slot already held by %s", other.Code))
		}
	}
	return nil
}

func (r appointments) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	return &a, nil
}

func (r appointments) GetByCode(ctx context.Context, code string) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.appointments {
		if a.Code == code {
			a := a
			return &a, nil
		}
	}
	return nil, errors.NotFound("appointment", nil)
}

func (r appointments) Update(ctx context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("appointments.update"); err != nil {
		return err
	}
	if _, ok := r.s.data.appointments[a.ID]; !ok {
		return errors.NotFound("appointment", nil)
	}
	if err := r.checkUnique(a); err != nil {
		return err
	}
	r.s.data.appointments[a.ID] = *a
	return nil
}

func (r appointments) List(ctx context.Context, f *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.s.data.appointments {
		if f != nil {
			if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
				continue
			}
			if f.PatientID != nil && a.PatientID != *f.PatientID {
				continue
			}
			if f.Status != "" && a.Status != f.Status {
				continue
			}
			if f.From != nil && a.Date.Before(*f.From) {
				continue
			}
			if f.To != nil && f.To.Before(a.Date) {
				continue
			}
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out, nil
}

func (r appointments) IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, at model.ClockTime, excludeID *uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.data.appointments {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if a.DoctorID == doctorID && a.Date == date && a.Time == at && a.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

type doctors struct{ s *Store }

func (r doctors) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.data.doctors[id]
	if !ok {
		return nil, errors.NotFound("doctor", nil)
	}
	return &d, nil
}

func (r doctors) ListAvailability(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklyAvailability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entries := r.s.data.availability[doctorID]
	out := make([]*model.WeeklyAvailability, 0, len(entries))
	for _, e := range entries {
		e := e
		out = append(out, &e)
	}
	return out, nil
}

func (r doctors) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, entries []*model.WeeklyAvailability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool, len(entries))
	stored := make([]model.WeeklyAvailability, 0, len(entries))
	for _, e := range entries {
		key := fmt.Sprintf("%d/%s", e.DayOfWeek, e.StartTime)
		if seen[key] {
			return errors.Validation("duplicate availability entry", fmt.Errorf("day %d start %s", e.DayOfWeek, e.StartTime))
		}
		seen[key] = true
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.DoctorID = doctorID
		stored = append(stored, *e)
	}
	r.s.data.availability[doctorID] = stored
	return nil
}

type patients struct{ s *Store }

func (r patients) Create(ctx context.Context, p *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("patients.create"); err != nil {
		return err
	}
	for _, other := range r.s.data.patients {
		if other.Code == p.Code {
			return fmt.Errorf("duplicate patient code %s", p.Code)
		}
		if other.Email == p.Email {
			return errors.Validation("email already registered", nil)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.data.patients[p.ID] = *p
	return nil
}

func (r patients) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.patients[id]
	if !ok {
		return nil, errors.NotFound("patient", nil)
	}
	return &p, nil
}

func (r patients) GetByCode(ctx context.Context, code string) (*model.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.patients {
		if p.Code == code {
			p := p
			return &p, nil
		}
	}
	return nil, errors.NotFound("patient", nil)
}

type treatments struct{ s *Store }

func (r treatments) Create(ctx context.Context, t *model.Treatment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("treatments.create"); err != nil {
		return err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.data.treatments[t.ID] = *t
	return nil
}

func (r treatments) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Treatment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Treatment
	for _, t := range r.s.data.treatments {
		if t.AppointmentID == appointmentID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (r treatments) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Treatment
	for _, t := range r.s.data.treatments {
		if a, ok := r.s.data.appointments[t.AppointmentID]; ok && a.PatientID == patientID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type sequences struct{ s *Store }

func (r sequences) Next(ctx context.Context, name string) (int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.data.sequences[name]
	if !ok {
		return 0, false, nil
	}
	v++
	r.s.data.sequences[name] = v
	return v, true, nil
}

func (r sequences) Seed(ctx context.Context, name string, value int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.sequences[name]; !ok {
		r.s.data.sequences[name] = value
	}
	return nil
}

func (r sequences) LastIssued(ctx context.Context, name string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var codes []string
	switch name {
	case "patient":
		for _, p := range r.s.data.patients {
			codes = append(codes, p.Code)
		}
	case "appointment":
		for _, a := range r.s.data.appointments {
			codes = append(codes, a.Code)
		}
	case "treatment":
		for _, t := range r.s.data.treatments {
			codes = append(codes, t.Code)
		}
	default:
		return "", fmt.Errorf("unknown sequence %q", name)
	}
	last := ""
	for _, c := range codes {
		if c == "" {
			continue
		}
		if len(c) > len(last) || (len(c) == len(last) && c > last) {
			last = c
		}
	}
	return last, nil
}

type outbox struct{ s *Store }

func (r outbox) Create(ctx context.Context, e *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.create"); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	e.Status = model.OutboxStatusPending
	e.CreatedAt = now
	e.UpdatedAt = now
	r.s.data.outbox = append(r.s.data.outbox, *e)
	return nil
}

func (r outbox) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	var out []*model.OutboxEvent
	for _, e := range r.s.data.outbox {
		if len(out) == limit {
			break
		}
		if e.Status != model.OutboxStatusPending && e.Status != model.OutboxStatusRetry {
			continue
		}
		if e.RetryAt != nil && e.RetryAt.After(now) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	return out, nil
}

func (r outbox) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.data.outbox {
		e := &r.s.data.outbox[i]
		if e.ID != id {
			continue
		}
		now := time.Now()
		e.Status = status
		e.ErrorMessage = errorMessage
		e.RetryAt = retryAt
		e.UpdatedAt = now
		if status == model.OutboxStatusRetry || status == model.OutboxStatusFailed {
			e.RetryCount++
		}
		if status == model.OutboxStatusProcessed {
			e.ProcessedAt = &now
		}
		return nil
	}
	return errors.NotFound("outbox event", nil)
}

func (r outbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.data.outbox[:0]
	var deleted int64
	for _, e := range r.s.data.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.data.outbox = kept
	return deleted, nil
}

func (r outbox) RequeueFailed(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.data.outbox {
		e := &r.s.data.outbox[i]
		if e.Status != model.OutboxStatusFailed {
			continue
		}
		e.Status = model.OutboxStatusPending
		e.RetryCount = 0
		e.RetryAt = nil
		e.ErrorMessage = nil
		e.UpdatedAt = time.Now()
		n++
	}
	return n, nil
}

type stats struct{ s *Store }

func (r stats) CountDoctors(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.data.doctors), nil
}

func (r stats) CountPatients(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.data.patients), nil
}

func (r stats) CountDepartments(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.data.departments, nil
}

func (r stats) CountTreatments(ctx context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.data.treatments), nil
}

func (r stats) AppointmentStatusCounts(ctx context.Context, doctorID *uuid.UUID) ([]model.StatusCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[model.AppointmentStatus]int)
	for _, a := range r.s.data.appointments {
		if doctorID != nil && a.DoctorID != *doctorID {
			continue
		}
		counts[a.Status]++
	}
	var out []model.StatusCount
	for _, status := range model.AppointmentStatuses {
		if n, ok := counts[status]; ok {
			out = append(out, model.StatusCount{Status: status, Count: n})
		}
	}
	return out, nil
}
