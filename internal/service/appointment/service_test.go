package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/internal/service/identifier"
	"github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *repotest.Store
	svc     *Service
	metrics *metrics.Scheduling
	now     time.Time

	doctor  *model.Doctor
	patient *model.Patient
	other   *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	m := metrics.NewScheduling(prometheus.NewRegistry(), "test")
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   store,
		metrics: m,
		now:     time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Config{}, identifier.NewAllocator(3, logger.Nop(), m), logger.Nop(), m,
		WithClock(func() time.Time { return f.now }))

	f.doctor = store.AddDoctor(model.Doctor{Name: "Dr. Mehta", IsAvailable: true})
	f.patient = store.AddPatient(model.Patient{Code: "P01", Name: "Asha", Email: "asha@example.com"})
	f.other = store.AddPatient(model.Patient{Code: "P02", Name: "Ravi", Email: "ravi@example.com"})
	return f
}

func (f *fixture) patientActor() model.Actor { return model.Actor{ID: f.patient.ID, Role: model.RolePatient} }
func (f *fixture) doctorActor() model.Actor  { return model.Actor{ID: f.doctor.ID, Role: model.RoleDoctor} }
func (f *fixture) adminActor() model.Actor   { return model.Actor{ID: uuid.New(), Role: model.RoleAdmin} }

func (f *fixture) tx(fn func(repos repository.Repositories) error) error {
	return f.store.WithTx(f.ctx, fn)
}

func (f *fixture) create(actor model.Actor, date, at string) (*model.Appointment, error) {
	var apt *model.Appointment
	err := f.tx(func(repos repository.Repositories) error {
		var err error
		apt, err = f.svc.Create(f.ctx, repos, actor, &model.BookAppointmentRequest{
			DoctorID: f.doctor.ID,
			Date:     date,
			Time:     at,
			Reason:   "Fever",
		})
		return err
	})
	return apt, err
}

func (f *fixture) book(date, at string) *model.Appointment {
	f.t.Helper()
	apt, err := f.create(f.patientActor(), date, at)
	require.NoError(f.t, err)
	return apt
}

func (f *fixture) reload(code string) *model.Appointment {
	f.t.Helper()
	apt, err := f.store.Appointments().GetByCode(f.ctx, code)
	require.NoError(f.t, err)
	return apt
}

func (f *fixture) cancel(actor model.Actor, code string) (*model.Appointment, error) {
	var apt *model.Appointment
	err := f.tx(func(repos repository.Repositories) error {
		var err error
		apt, err = f.svc.Cancel(f.ctx, repos, actor, code, "travel")
		return err
	})
	return apt, err
}

func (f *fixture) complete(actor model.Actor, code, diagnosis string) (*model.Treatment, error) {
	var trt *model.Treatment
	err := f.tx(func(repos repository.Repositories) error {
		var err error
		_, trt, err = f.svc.Complete(f.ctx, repos, actor, code, &model.CompleteAppointmentRequest{
			Diagnosis:    diagnosis,
			Prescription: "Rest",
			FollowUpDate: "2024-06-20",
		})
		return err
	})
	return trt, err
}

func TestCreateAssignsCodeAndDefaults(t *testing.T) {
	f := newFixture(t)

	first := f.book("2024-06-05", "09:00")
	second := f.book("2024-06-05", "09:30")

	assert.Equal(t, "APT001", first.Code)
	assert.Equal(t, "APT002", second.Code)
	assert.Equal(t, model.AppointmentStatusScheduled, first.Status)
	assert.Equal(t, model.PriorityNormal, first.Priority)
	assert.Equal(t, 30, first.EstimatedDuration)
	assert.Equal(t, "Consultation", first.Type)
	assert.Equal(t, f.patient.ID, first.PatientID)
	assert.Equal(t, f.now, first.CreatedAt)

	events := f.store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.EventAppointmentBooked, events[0].EventType)
	var payload model.AppointmentEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "APT001", payload.AppointmentCode)
	assert.Equal(t, "patient", payload.ActorRole)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.AppointmentsBooked))
}

func TestCreateRejectsOccupiedSlot(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-05", "09:00")

	otherActor := model.Actor{ID: f.other.ID, Role: model.RolePatient}
	_, err := f.create(otherActor, "2024-06-05", "09:00")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSlotConflict))

	// a different time on the same day is a different slot
	_, err = f.create(otherActor, "2024-06-05", "09:15")
	require.NoError(t, err)

	_, err = f.cancel(f.adminActor(), apt.Code)
	require.NoError(t, err)

	rebooked, err := f.create(otherActor, "2024-06-05", "09:00")
	require.NoError(t, err)
	assert.Equal(t, "APT003", rebooked.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SlotConflicts.WithLabelValues("create", "check")))
}

func TestConcurrentBookingHasSingleWinner(t *testing.T) {
	f := newFixture(t)
	actors := []model.Actor{
		f.patientActor(),
		{ID: f.other.ID, Role: model.RolePatient},
	}

	var wg sync.WaitGroup
	results := make([]error, len(actors))
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor model.Actor) {
			defer wg.Done()
			_, results[i] = f.create(actor, "2024-06-05", "11:00")
		}(i, actor)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, errors.ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

type blindAppointments struct {
	repository.AppointmentRepository
}

func (blindAppointments) IsSlotTaken(context.Context, uuid.UUID, model.Date, model.ClockTime, *uuid.UUID) (bool, error) {
	return false, nil
}

type blindRepos struct {
	repository.Repositories
}

func (r blindRepos) Appointments() repository.AppointmentRepository {
	return blindAppointments{r.Repositories.Appointments()}
}

func TestCreateMapsStorageViolationToSlotConflict(t *testing.T) {
	f := newFixture(t)
	f.book("2024-06-05", "09:00")

	err := f.tx(func(repos repository.Repositories) error {
		_, err := f.svc.Create(f.ctx, blindRepos{repos}, model.Actor{ID: f.other.ID, Role: model.RolePatient}, &model.BookAppointmentRequest{
			DoctorID: f.doctor.ID,
			Date:     "2024-06-05",
			Time:     "09:00",
		})
		return err
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSlotConflict))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SlotConflicts.WithLabelValues("create", "storage")))
	// the allocated code was rolled back with the transaction
	next := f.book("2024-06-06", "09:00")
	assert.Equal(t, "APT002", next.Code)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	unavailable := f.store.AddDoctor(model.Doctor{Name: "Dr. Away", IsAvailable: false})

	tests := []struct {
		name  string
		actor model.Actor
		req   model.BookAppointmentRequest
		code  errors.ErrorCode
	}{
		{"malformed date", f.patientActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "05/06/2024", Time: "09:00"}, errors.ErrValidation},
		{"malformed time", f.patientActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-05", Time: "9 o'clock"}, errors.ErrValidation},
		{"missing time", f.patientActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-05"}, errors.ErrValidation},
		{"missing doctor", f.patientActor(), model.BookAppointmentRequest{Date: "2024-06-05", Time: "09:00"}, errors.ErrValidation},
		{"in the past", f.patientActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-03", Time: "09:59"}, errors.ErrValidation},
		{"starting now", f.patientActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-03", Time: "10:00"}, errors.ErrValidation},
		{"doctor unavailable", f.patientActor(), model.BookAppointmentRequest{DoctorID: unavailable.ID, Date: "2024-06-05", Time: "09:00"}, errors.ErrValidation},
		{"unknown doctor", f.patientActor(), model.BookAppointmentRequest{DoctorID: uuid.New(), Date: "2024-06-05", Time: "09:00"}, errors.ErrNotFound},
		{"doctor books", f.doctorActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-05", Time: "09:00"}, errors.ErrForbidden},
		{"patient books for other", f.patientActor(), model.BookAppointmentRequest{PatientID: &f.other.ID, DoctorID: f.doctor.ID, Date: "2024-06-05", Time: "09:00"}, errors.ErrForbidden},
		{"admin without patient", f.adminActor(), model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-05", Time: "09:00"}, errors.ErrValidation},
		{"unknown role", model.Actor{ID: f.patient.ID}, model.BookAppointmentRequest{DoctorID: f.doctor.ID, Date: "2024-06-05", Time: "09:00"}, errors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.Create(f.ctx, f.store, tt.actor, &req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err), err.Error())
		})
	}
	assert.Empty(t, f.store.Events())
}

func TestAdminBooksForPatient(t *testing.T) {
	f := newFixture(t)
	apt, err := f.svc.Create(f.ctx, f.store, f.adminActor(), &model.BookAppointmentRequest{
		PatientID: &f.other.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2024-06-05",
		Time:      "09:00",
		Priority:  model.PriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, apt.PatientID)
	assert.Equal(t, model.PriorityUrgent, apt.Priority)
}

func TestPatientCancellationWindow(t *testing.T) {
	f := newFixture(t)
	tooLate := f.book("2024-06-04", "09:59")
	justInTime := f.book("2024-06-04", "10:00")

	_, err := f.cancel(f.patientActor(), tooLate.Code)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPolicyViolation))
	assert.Equal(t, model.AppointmentStatusScheduled, f.reload(tooLate.Code).Status)

	cancelled, err := f.cancel(f.patientActor(), justInTime.Code)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "travel", *cancelled.CancelReason)
	assert.Equal(t, model.AppointmentStatusCancelled, f.reload(justInTime.Code).Status)
}

func TestStaffCancellationIgnoresWindow(t *testing.T) {
	f := newFixture(t)
	soon := f.book("2024-06-03", "11:00")
	later := f.book("2024-06-03", "12:00")

	_, err := f.cancel(f.doctorActor(), soon.Code)
	require.NoError(t, err)

	started := f.reload(later.Code)
	started.Status = model.AppointmentStatusInProgress
	require.NoError(t, f.store.Appointments().Update(f.ctx, started))

	_, err = f.cancel(f.adminActor(), later.Code)
	require.NoError(t, err)

	_, err = f.cancel(f.adminActor(), later.Code)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-10", "09:00")

	_, err := f.cancel(model.Actor{ID: f.other.ID, Role: model.RolePatient}, apt.Code)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = f.cancel(model.Actor{ID: uuid.New(), Role: model.RoleDoctor}, apt.Code)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	inProgress := f.reload(apt.Code)
	inProgress.Status = model.AppointmentStatusInProgress
	require.NoError(t, f.store.Appointments().Update(f.ctx, inProgress))

	_, err = f.cancel(f.patientActor(), apt.Code)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	_, err = f.cancel(f.adminActor(), "APT999")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReschedulePreservesIdentity(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.book("2024-06-07", fmt.Sprintf("%02d:00", 9+i))
	}
	apt := f.book("2024-06-10", "09:00")
	require.Equal(t, "APT005", apt.Code)

	var moved *model.Appointment
	err := f.tx(func(repos repository.Repositories) error {
		var err error
		moved, err = f.svc.Reschedule(f.ctx, repos, f.patientActor(), apt.Code, &model.RescheduleAppointmentRequest{
			Date: "2024-06-11",
			Time: "14:30",
		})
		return err
	})
	require.NoError(t, err)

	stored := f.reload("APT005")
	assert.Equal(t, apt.ID, stored.ID)
	assert.Equal(t, apt.DoctorID, stored.DoctorID)
	assert.Equal(t, apt.PatientID, stored.PatientID)
	assert.Equal(t, "2024-06-11", stored.Date.String())
	assert.Equal(t, "14:30", stored.Time.String())
	assert.Equal(t, moved.Date, stored.Date)

	events := f.store.Events()
	last := events[len(events)-1]
	assert.Equal(t, model.EventAppointmentRescheduled, last.EventType)
	var payload model.AppointmentEvent
	require.NoError(t, json.Unmarshal(last.Payload, &payload))
	require.NotNil(t, payload.PreviousDate)
	assert.Equal(t, "2024-06-10", payload.PreviousDate.String())

	// the old slot is free again
	_, err = f.create(model.Actor{ID: f.other.ID, Role: model.RolePatient}, "2024-06-10", "09:00")
	require.NoError(t, err)
}

func TestRescheduleRules(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-10", "09:00")
	f.book("2024-06-10", "10:00")

	reschedule := func(actor model.Actor, date, at string) error {
		return f.tx(func(repos repository.Repositories) error {
			_, err := f.svc.Reschedule(f.ctx, repos, actor, apt.Code, &model.RescheduleAppointmentRequest{Date: date, Time: at})
			return err
		})
	}

	assert.True(t, errors.Is(reschedule(f.patientActor(), "2024-06-10", "10:00"), errors.ErrSlotConflict))
	assert.True(t, errors.Is(reschedule(f.doctorActor(), "2024-06-12", "10:00"), errors.ErrForbidden))
	assert.True(t, errors.Is(reschedule(f.adminActor(), "2024-06-12", "10:00"), errors.ErrForbidden))
	assert.True(t, errors.Is(reschedule(f.patientActor(), "2024-06-01", "10:00"), errors.ErrValidation))
	assert.True(t, errors.Is(reschedule(f.patientActor(), "2024-06-12", "25:00"), errors.ErrValidation))

	// moving onto its own slot does not conflict with itself
	require.NoError(t, reschedule(f.patientActor(), "2024-06-10", "09:00"))

	_, err := f.complete(f.doctorActor(), apt.Code, "Flu")
	require.NoError(t, err)
	assert.True(t, errors.Is(reschedule(f.patientActor(), "2024-06-12", "10:00"), errors.ErrInvalidTransition))
}

func TestCompleteCreatesExactlyOneTreatment(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-05", "09:00")

	trt, err := f.complete(f.doctorActor(), apt.Code, "Flu")
	require.NoError(t, err)
	assert.Equal(t, "TRT001", trt.Code)
	assert.Equal(t, "Flu", trt.Diagnosis)
	assert.Equal(t, apt.ID, trt.AppointmentID)
	require.NotNil(t, trt.FollowUpDate)
	assert.Equal(t, "2024-06-20", trt.FollowUpDate.String())
	assert.Equal(t, model.AppointmentStatusCompleted, f.reload(apt.Code).Status)
	assert.Equal(t, 1, f.store.TreatmentCount())

	_, err = f.complete(f.doctorActor(), apt.Code, "Flu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	assert.Equal(t, 1, f.store.TreatmentCount())
}

func TestCompleteRules(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-05", "09:00")

	_, err := f.complete(f.doctorActor(), apt.Code, "   ")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = f.complete(f.adminActor(), apt.Code, "Flu")
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = f.complete(model.Actor{ID: uuid.New(), Role: model.RoleDoctor}, apt.Code, "Flu")
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = f.complete(f.patientActor(), apt.Code, "Flu")
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	assert.Equal(t, 0, f.store.TreatmentCount())
}

func TestCompleteRollsBackWhenTreatmentFails(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-05", "09:00")
	eventsBefore := len(f.store.Events())

	f.store.FailOn("treatments.create", fmt.Errorf("disk full"))
	_, err := f.complete(f.doctorActor(), apt.Code, "Flu")
	require.Error(t, err)

	assert.Equal(t, model.AppointmentStatusScheduled, f.reload(apt.Code).Status)
	assert.Len(t, f.store.Events(), eventsBefore)
	completed := f.metrics.Transitions.WithLabelValues(string(model.AppointmentStatusCompleted))
	assert.Equal(t, 0.0, testutil.ToFloat64(completed))

	f.store.FailOn("treatments.create", nil)
	trt, err := f.complete(f.doctorActor(), apt.Code, "Flu")
	require.NoError(t, err)
	assert.Equal(t, "TRT001", trt.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(completed))
}

func TestStaffTransitions(t *testing.T) {
	f := newFixture(t)
	apt := f.book("2024-06-05", "09:00")

	run := func(actor model.Actor, op func(context.Context, repository.Repositories, model.Actor, string) (*model.Appointment, error)) (*model.Appointment, error) {
		var out *model.Appointment
		err := f.tx(func(repos repository.Repositories) error {
			var err error
			out, err = op(f.ctx, repos, actor, apt.Code)
			return err
		})
		return out, err
	}

	_, err := run(f.patientActor(), f.svc.Confirm)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	confirmed, err := run(f.doctorActor(), f.svc.Confirm)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)

	_, err = run(f.doctorActor(), f.svc.Confirm)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	started, err := run(f.adminActor(), f.svc.Start)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusInProgress, started.Status)

	// an in-progress visit still holds the slot
	_, err = f.create(model.Actor{ID: f.other.ID, Role: model.RolePatient}, "2024-06-05", "09:00")
	assert.True(t, errors.Is(err, errors.ErrSlotConflict))

	noShow, err := run(f.doctorActor(), f.svc.MarkNoShow)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusNoShow, noShow.Status)

	_, err = run(f.doctorActor(), f.svc.Start)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(string(model.AppointmentStatusNoShow))))
}

func TestGetAndListAreScoped(t *testing.T) {
	f := newFixture(t)
	mine := f.book("2024-06-05", "09:00")
	theirs, err := f.create(model.Actor{ID: f.other.ID, Role: model.RolePatient}, "2024-06-05", "10:00")
	require.NoError(t, err)

	_, err = f.svc.Get(f.ctx, f.store, f.patientActor(), theirs.Code)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	got, err := f.svc.Get(f.ctx, f.store, f.doctorActor(), mine.Code)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	list, err := f.svc.List(f.ctx, f.store, f.patientActor(), model.AppointmentFilters{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.Code, list[0].Code)

	list, err = f.svc.List(f.ctx, f.store, f.adminActor(), model.AppointmentFilters{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.List(f.ctx, f.store, model.Actor{ID: uuid.New(), Role: model.RoleDoctor}, model.AppointmentFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPatientHistory(t *testing.T) {
	f := newFixture(t)
	earlier := f.book("2024-06-05", "09:00")
	later := f.book("2024-06-07", "09:00")
	f.book("2024-06-06", "09:00")

	_, err := f.complete(f.doctorActor(), earlier.Code, "Migraine")
	require.NoError(t, err)
	_, err = f.complete(f.doctorActor(), later.Code, "Follow-up")
	require.NoError(t, err)

	// completed without a treatment record, as imported legacy rows can be
	f.store.PutAppointment(model.Appointment{
		Code:      "APT900",
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      model.NewDate(2024, time.June, 8),
		Time:      model.NewClockTime(9, 0),
		Status:    model.AppointmentStatusCompleted,
	})

	history, err := f.svc.PatientHistory(f.ctx, f.store, f.patientActor(), f.patient.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, later.Code, history[0].Appointment.Code)
	assert.Equal(t, earlier.Code, history[1].Appointment.Code)
	require.Len(t, history[1].Treatments, 1)
	assert.Equal(t, "Migraine", history[1].Treatments[0].Diagnosis)

	_, err = f.svc.PatientHistory(f.ctx, f.store, model.Actor{ID: f.other.ID, Role: model.RolePatient}, f.patient.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = f.svc.PatientHistory(f.ctx, f.store, f.adminActor(), uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
