package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/identifier"
	"github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const DefaultCancellationWindow = 24 * time.Hour

type Config struct {
	// CancellationWindow is the minimum notice a patient must give to cancel.
	CancellationWindow time.Duration
	// Location interprets appointment dates and times.
	Location *time.Location
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	cfg     Config
	ids     *identifier.Allocator
	checker *Checker
	now     func() time.Time
	logger  *logger.Logger
	metrics *metrics.Scheduling
}

func NewService(cfg Config, ids *identifier.Allocator, logger *logger.Logger, metrics *metrics.Scheduling, opts ...Option) *Service {
	if cfg.CancellationWindow <= 0 {
		cfg.CancellationWindow = DefaultCancellationWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Service{
		cfg:     cfg,
		ids:     ids,
		checker: NewChecker(metrics),
		now:     time.Now,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checker exposes the slot checker used by the service.
func (s *Service) Checker() *Checker { return s.checker }

// Create books a slot. Patients book for themselves, admins on behalf of a
// patient. The appointment starts Scheduled with default priority and
// duration.
func (s *Service) Create(ctx context.Context, repos repository.Repositories, actor model.Actor, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	var patientID uuid.UUID
	switch actor.Role {
	case model.RolePatient:
		if req.PatientID != nil && *req.PatientID != actor.ID {
			return nil, errors.Forbidden("patients may only book for themselves")
		}
		patientID = actor.ID
	case model.RoleAdmin:
		if req.PatientID == nil || *req.PatientID == uuid.Nil {
			return nil, errors.Validation("patient_id is required", nil)
		}
		patientID = *req.PatientID
	case model.RoleDoctor:
		return nil, errors.Forbidden("doctors cannot book appointments")
	default:
		return nil, errors.Forbidden("")
	}

	if req.DoctorID == uuid.Nil {
		return nil, errors.Validation("doctor_id is required", nil)
	}
	date, at, err := s.parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	doctor, err := repos.Doctors().Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsAvailable {
		return nil, errors.Validation("doctor is not accepting appointments", nil)
	}
	if _, err := repos.Patients().Get(ctx, patientID); err != nil {
		return nil, err
	}

	if err := s.checker.ensureFree(ctx, repos, "create", doctor.ID, date, at, nil); err != nil {
		return nil, err
	}

	code, err := s.ids.Allocate(ctx, repos, identifier.Appointment)
	if err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		Base:              model.Base{ID: uuid.New()},
		Code:              code,
		DoctorID:          doctor.ID,
		PatientID:         patientID,
		Date:              date,
		Time:              at,
		Status:            model.AppointmentStatusScheduled,
		Type:              model.DefaultAppointmentType,
		Reason:            strings.TrimSpace(req.Reason),
		Notes:             strings.TrimSpace(req.Notes),
		Priority:          model.DefaultAppointmentPriority,
		EstimatedDuration: model.DefaultEstimatedDuration,
	}
	if req.Type != "" {
		apt.Type = req.Type
	}
	if req.Priority != "" {
		apt.Priority = req.Priority
	}
	apt.Touch(s.now())

	if err := repos.Appointments().Create(ctx, apt); err != nil {
		if s.checker.storageConflict("create", err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := s.emit(ctx, repos, model.EventAppointmentBooked, actor, apt, nil); err != nil {
		return nil, err
	}

	s.metrics.AppointmentsBooked.Inc()
	s.logger.Info("Appointment booked",
		"appointment", apt.Code,
		"doctor_id", apt.DoctorID.String(),
		"date", apt.Date.String(),
		"time", apt.Time.String())
	return apt, nil
}

// Confirm moves a Scheduled appointment to Confirmed.
func (s *Service) Confirm(ctx context.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
	return s.staffTransition(ctx, repos, actor, code, model.AppointmentStatusConfirmed, model.EventAppointmentConfirmed)
}

// Start marks the visit as In-Progress.
func (s *Service) Start(ctx context.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
	return s.staffTransition(ctx, repos, actor, code, model.AppointmentStatusInProgress, model.EventAppointmentStarted)
}

// MarkNoShow closes an appointment the patient did not attend.
func (s *Service) MarkNoShow(ctx context.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
	return s.staffTransition(ctx, repos, actor, code, model.AppointmentStatusNoShow, model.EventAppointmentNoShow)
}

func (s *Service) staffTransition(ctx context.Context, repos repository.Repositories, actor model.Actor, code string, next model.AppointmentStatus, eventType string) (*model.Appointment, error) {
	apt, err := s.load(ctx, repos, code)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if !actor.IsDoctor(apt.DoctorID) {
			return nil, errors.Forbidden("only the assigned doctor may update this appointment")
		}
	case model.RolePatient:
		return nil, errors.Forbidden("patients cannot update appointment status")
	default:
		return nil, errors.Forbidden("")
	}

	if err := s.transition(apt, next); err != nil {
		return nil, err
	}
	if err := s.save(ctx, repos, apt); err != nil {
		return nil, err
	}
	if err := s.emit(ctx, repos, eventType, actor, apt, nil); err != nil {
		return nil, err
	}
	s.observe(next)
	return apt, nil
}

// Complete closes the visit and records exactly one treatment. Only the
// assigned doctor may complete an appointment.
func (s *Service) Complete(ctx context.Context, repos repository.Repositories, actor model.Actor, code string, req *model.CompleteAppointmentRequest) (*model.Appointment, *model.Treatment, error) {
	apt, err := s.load(ctx, repos, code)
	if err != nil {
		return nil, nil, err
	}

	switch actor.Role {
	case model.RoleDoctor:
		if !actor.IsDoctor(apt.DoctorID) {
			return nil, nil, errors.Forbidden("only the assigned doctor may complete this appointment")
		}
	case model.RoleAdmin, model.RolePatient:
		return nil, nil, errors.Forbidden("only the assigned doctor may complete this appointment")
	default:
		return nil, nil, errors.Forbidden("")
	}

	if apt.Status.IsTerminal() {
		return nil, nil, errors.InvalidTransition(fmt.Sprintf("appointment %s is already %s", apt.Code, apt.Status))
	}

	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, nil, errors.Validation("diagnosis is required", nil)
	}
	var followUp *model.Date
	if req.FollowUpDate != "" {
		d, err := model.ParseDate(req.FollowUpDate)
		if err != nil {
			return nil, nil, errors.Validation("invalid follow_up_date", err)
		}
		followUp = &d
	}

	if err := s.transition(apt, model.AppointmentStatusCompleted); err != nil {
		return nil, nil, err
	}
	if err := s.save(ctx, repos, apt); err != nil {
		return nil, nil, err
	}

	trtCode, err := s.ids.Allocate(ctx, repos, identifier.Treatment)
	if err != nil {
		return nil, nil, err
	}
	treatment := &model.Treatment{
		Base:                 model.Base{ID: uuid.New()},
		Code:                 trtCode,
		AppointmentID:        apt.ID,
		Diagnosis:            diagnosis,
		Symptoms:             req.Symptoms,
		Prescription:         req.Prescription,
		TreatmentPlan:        req.TreatmentPlan,
		Notes:                req.Notes,
		FollowUpDate:         followUp,
		FollowUpInstructions: req.FollowUpInstructions,
	}
	treatment.Touch(apt.UpdatedAt)
	if err := repos.Treatments().Create(ctx, treatment); err != nil {
		return nil, nil, fmt.Errorf("failed to create treatment: %w", err)
	}

	if err := s.emit(ctx, repos, model.EventAppointmentCompleted, actor, apt, func(e *model.AppointmentEvent) {
		e.TreatmentCode = treatment.Code
	}); err != nil {
		return nil, nil, err
	}
	s.observe(model.AppointmentStatusCompleted)
	return apt, treatment, nil
}

// Cancel releases the slot. Patients may only cancel their own Scheduled or
// Confirmed appointments and must give at least the cancellation window of
// notice. The assigned doctor and admins may cancel any non-terminal
// appointment at any time.
func (s *Service) Cancel(ctx context.Context, repos repository.Repositories, actor model.Actor, code string, reason string) (*model.Appointment, error) {
	apt, err := s.load(ctx, repos, code)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RolePatient:
		if !actor.IsPatient(apt.PatientID) {
			return nil, errors.Forbidden("patients may only cancel their own appointments")
		}
		if apt.Status != model.AppointmentStatusScheduled && apt.Status != model.AppointmentStatusConfirmed {
			return nil, errors.InvalidTransition(fmt.Sprintf("appointment %s is %s and can no longer be cancelled", apt.Code, apt.Status))
		}
		if notice := s.slotStart(apt).Sub(s.now()); notice < s.cfg.CancellationWindow {
			return nil, errors.PolicyViolation(fmt.Sprintf("appointments must be cancelled at least %s in advance", s.cfg.CancellationWindow))
		}
	case model.RoleDoctor:
		if !actor.IsDoctor(apt.DoctorID) {
			return nil, errors.Forbidden("only the assigned doctor may cancel this appointment")
		}
	case model.RoleAdmin:
	default:
		return nil, errors.Forbidden("")
	}

	if err := s.transition(apt, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		apt.CancelReason = &reason
	}
	if err := s.save(ctx, repos, apt); err != nil {
		return nil, err
	}
	if err := s.emit(ctx, repos, model.EventAppointmentCancelled, actor, apt, func(e *model.AppointmentEvent) {
		e.Reason = reason
	}); err != nil {
		return nil, err
	}
	s.observe(model.AppointmentStatusCancelled)
	return apt, nil
}

// Reschedule moves a patient's own Scheduled or Confirmed appointment to a
// new slot in place. The code, doctor and patient are kept and the previous
// slot is not recorded on the appointment.
func (s *Service) Reschedule(ctx context.Context, repos repository.Repositories, actor model.Actor, code string, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.load(ctx, repos, code)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RolePatient:
		if !actor.IsPatient(apt.PatientID) {
			return nil, errors.Forbidden("patients may only reschedule their own appointments")
		}
	case model.RoleDoctor, model.RoleAdmin:
		return nil, errors.Forbidden("only the patient may reschedule an appointment")
	default:
		return nil, errors.Forbidden("")
	}

	if apt.Status != model.AppointmentStatusScheduled && apt.Status != model.AppointmentStatusConfirmed {
		return nil, errors.InvalidTransition(fmt.Sprintf("appointment %s is %s and cannot be rescheduled", apt.Code, apt.Status))
	}

	date, at, err := s.parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if err := s.checker.ensureFree(ctx, repos, "reschedule", apt.DoctorID, date, at, &apt.ID); err != nil {
		return nil, err
	}

	prevDate, prevTime := apt.Date, apt.Time
	apt.Date = date
	apt.Time = at
	if err := s.save(ctx, repos, apt); err != nil {
		s.checker.storageConflict("reschedule", err)
		return nil, err
	}

	if err := s.emit(ctx, repos, model.EventAppointmentRescheduled, actor, apt, func(e *model.AppointmentEvent) {
		e.PreviousDate = &prevDate
		e.PreviousTime = &prevTime
	}); err != nil {
		return nil, err
	}
	return apt, nil
}

// Get returns an appointment visible to the actor.
func (s *Service) Get(ctx context.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
	apt, err := s.load(ctx, repos, code)
	if err != nil {
		return nil, err
	}
	if !canView(actor, apt) {
		return nil, errors.Forbidden("appointment belongs to another user")
	}
	return apt, nil
}

// List returns appointments scoped to the actor: patients and doctors see
// their own, admins see everything matching filters.
func (s *Service) List(ctx context.Context, repos repository.Repositories, actor model.Actor, filters model.AppointmentFilters) ([]*model.Appointment, error) {
	switch actor.Role {
	case model.RolePatient:
		filters.PatientID = &actor.ID
	case model.RoleDoctor:
		filters.DoctorID = &actor.ID
	case model.RoleAdmin:
	default:
		return nil, errors.Forbidden("")
	}

	appointments, err := repos.Appointments().List(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// PatientHistory lists a patient's completed appointments that have a
// treatment record, most recent visit first.
func (s *Service) PatientHistory(ctx context.Context, repos repository.Repositories, actor model.Actor, patientID uuid.UUID) ([]model.PatientHistoryEntry, error) {
	switch actor.Role {
	case model.RoleAdmin, model.RoleDoctor:
	case model.RolePatient:
		if !actor.IsPatient(patientID) {
			return nil, errors.Forbidden("patients may only view their own history")
		}
	default:
		return nil, errors.Forbidden("")
	}

	if _, err := repos.Patients().Get(ctx, patientID); err != nil {
		return nil, err
	}

	appointments, err := repos.Appointments().List(ctx, &model.AppointmentFilters{
		PatientID: &patientID,
		Status:    model.AppointmentStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list completed appointments: %w", err)
	}
	treatments, err := repos.Treatments().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}

	byAppointment := make(map[uuid.UUID][]*model.Treatment, len(appointments))
	for _, t := range treatments {
		byAppointment[t.AppointmentID] = append(byAppointment[t.AppointmentID], t)
	}

	history := make([]model.PatientHistoryEntry, 0, len(appointments))
	for _, apt := range appointments {
		if len(byAppointment[apt.ID]) == 0 {
			continue
		}
		history = append(history, model.PatientHistoryEntry{Appointment: apt, Treatments: byAppointment[apt.ID]})
	}
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i].Appointment, history[j].Appointment
		if a.Date != b.Date {
			return b.Date.Before(a.Date)
		}
		return b.Time.Before(a.Time)
	})
	return history, nil
}

func canView(actor model.Actor, apt *model.Appointment) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleDoctor:
		return actor.IsDoctor(apt.DoctorID)
	case model.RolePatient:
		return actor.IsPatient(apt.PatientID)
	default:
		return false
	}
}

func (s *Service) load(ctx context.Context, repos repository.Repositories, code string) (*model.Appointment, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.Validation("appointment code is required", nil)
	}
	return repos.Appointments().GetByCode(ctx, code)
}

func (s *Service) transition(apt *model.Appointment, next model.AppointmentStatus) error {
	if apt.Status.IsTerminal() {
		return errors.InvalidTransition(fmt.Sprintf("appointment %s is already %s", apt.Code, apt.Status))
	}
	if !apt.Status.CanTransitionTo(next) {
		return errors.InvalidTransition(fmt.Sprintf("appointment %s cannot move from %s to %s", apt.Code, apt.Status, next))
	}
	apt.Status = next
	return nil
}

// observe counts a transition once the whole operation has succeeded.
func (s *Service) observe(status model.AppointmentStatus) {
	s.metrics.Transitions.WithLabelValues(string(status)).Inc()
}

func (s *Service) save(ctx context.Context, repos repository.Repositories, apt *model.Appointment) error {
	apt.Touch(s.now())
	if err := repos.Appointments().Update(ctx, apt); err != nil {
		if errors.Is(err, errors.ErrSlotConflict) || errors.Is(err, errors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// parseSlot validates a requested slot and rejects slots that have started.
func (s *Service) parseSlot(rawDate, rawTime string) (model.Date, model.ClockTime, error) {
	if strings.TrimSpace(rawDate) == "" || strings.TrimSpace(rawTime) == "" {
		return model.Date{}, model.ClockTime{}, errors.Validation("appointment_date and appointment_time are required", nil)
	}
	date, err := model.ParseDate(rawDate)
	if err != nil {
		return model.Date{}, model.ClockTime{}, errors.Validation("invalid appointment_date, expected YYYY-MM-DD", err)
	}
	at, err := model.ParseClockTime(rawTime)
	if err != nil {
		return model.Date{}, model.ClockTime{}, errors.Validation("invalid appointment_time, expected HH:MM", err)
	}
	if !at.At(date, s.cfg.Location).After(s.now()) {
		return model.Date{}, model.ClockTime{}, errors.Validation("appointment must be in the future", nil)
	}
	return date, at, nil
}

func (s *Service) slotStart(apt *model.Appointment) time.Time {
	return apt.Time.At(apt.Date, s.cfg.Location)
}

func (s *Service) emit(ctx context.Context, repos repository.Repositories, eventType string, actor model.Actor, apt *model.Appointment, decorate func(*model.AppointmentEvent)) error {
	evt := model.AppointmentEvent{
		AppointmentID:   apt.ID,
		AppointmentCode: apt.Code,
		DoctorID:        apt.DoctorID,
		PatientID:       apt.PatientID,
		Date:            apt.Date,
		Time:            apt.Time,
		Status:          apt.Status,
		ActorRole:       actor.Role.String(),
		OccurredAt:      s.now().UTC(),
	}
	if decorate != nil {
		decorate(&evt)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	if err := repos.Outbox().Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}); err != nil {
		return fmt.Errorf("failed to write %s event: %w", eventType, err)
	}
	return nil
}
