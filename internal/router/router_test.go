package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appointmenthandler "github.com/jwalitptl/hospital-api/internal/handler/appointment"
	doctorhandler "github.com/jwalitptl/hospital-api/internal/handler/doctor"
	"github.com/jwalitptl/hospital-api/internal/handler/health"
	patienthandler "github.com/jwalitptl/hospital-api/internal/handler/patient"
	"github.com/jwalitptl/hospital-api/internal/handler/prometheus"
	statshandler "github.com/jwalitptl/hospital-api/internal/handler/stats"
	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/internal/service/appointment"
	"github.com/jwalitptl/hospital-api/internal/service/availability"
	"github.com/jwalitptl/hospital-api/internal/service/identifier"
	"github.com/jwalitptl/hospital-api/internal/service/patient"
	"github.com/jwalitptl/hospital-api/internal/service/stats"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

func init() {
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type testAPI struct {
	t      *testing.T
	router *Router
	store  *repotest.Store
	jwt    auth.JWTService
	doctor *model.Doctor
}

func newTestAPI(t *testing.T, db health.Pinger) *testAPI {
	t.Helper()
	now := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)
	reg := promclient.NewRegistry()
	m := metrics.NewScheduling(reg, "test")
	log := logger.Nop()
	store := repotest.NewStore()
	ids := identifier.NewAllocator(3, log, m)

	appointmentSvc := appointment.NewService(appointment.Config{}, ids, log, m,
		appointment.WithClock(func() time.Time { return now }))
	availabilitySvc := availability.NewService(availability.Config{}, log, m)
	jwtSvc := auth.NewJWTService("test-secret", "hospital-api", time.Hour)

	r := NewRouter(middleware.NewAuthMiddleware(jwtSvc), Handlers{
		Appointment: appointmenthandler.NewHandler(store, appointmentSvc),
		Doctor:      doctorhandler.NewHandler(store, availabilitySvc, time.UTC),
		Patient:     patienthandler.NewHandler(store, patient.NewService(ids, log), appointmentSvc),
		Stats:       statshandler.NewHandler(store, stats.NewService(store.Stats())),
		Health:      health.NewHandler(db),
		Metrics:     prometheus.New(reg),
	}, RouterConfig{
		RequestTimeout: 5 * time.Second,
		CORS:           middleware.DefaultCORSConfig(),
		Mode:           gin.TestMode,
	})
	r.Setup()

	return &testAPI{
		t:      t,
		router: r,
		store:  store,
		jwt:    jwtSvc,
		doctor: store.AddDoctor(model.Doctor{Name: "Dr. Mehta", IsAvailable: true}),
	}
}

func (a *testAPI) token(actor model.Actor) string {
	a.t.Helper()
	token, err := a.jwt.GenerateAccessToken(actor)
	require.NoError(a.t, err)
	return token
}

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) do(method, path string, actor *model.Actor, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(*actor))
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

// raw sends body verbatim; contentLength -1 mimics a chunked request.
func (a *testAPI) raw(method, path string, actor *model.Actor, body string, contentLength int64) (int, envelope) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.ContentLength = contentLength
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(*actor))
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (a *testAPI) register(name, email string) model.Patient {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/patients", nil, gin.H{"name": name, "email": email})
	require.Equal(a.t, http.StatusCreated, status, env.Message)
	var p model.Patient
	require.NoError(a.t, json.Unmarshal(env.Data, &p))
	return p
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t, pinger{})

	asha := api.register("Asha", "asha@example.com")
	ravi := api.register("Ravi", "ravi@example.com")
	assert.Equal(t, "P01", asha.Code)
	assert.Equal(t, "P02", ravi.Code)

	ashaActor := model.Actor{ID: asha.ID, Role: model.RolePatient}
	raviActor := model.Actor{ID: ravi.ID, Role: model.RolePatient}
	slot := gin.H{"doctor_id": api.doctor.ID, "appointment_date": "2024-06-05", "appointment_time": "09:00"}

	status, env := api.do(http.MethodPost, "/api/v1/appointments", &ashaActor, slot)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var apt model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	assert.Equal(t, "APT001", apt.Code)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)

	status, env = api.do(http.MethodPost, "/api/v1/appointments", &raviActor, slot)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "slot_conflict", env.Code)

	status, _ = api.do(http.MethodGet, "/api/v1/appointments/APT001", &raviActor, nil)
	assert.Equal(t, http.StatusForbidden, status)

	doctorActor := model.Actor{ID: api.doctor.ID, Role: model.RoleDoctor}
	status, env = api.do(http.MethodPost, "/api/v1/appointments/APT001/confirm", &doctorActor, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	assert.Equal(t, model.AppointmentStatusConfirmed, apt.Status)

	status, env = api.do(http.MethodPost, "/api/v1/appointments/APT001/reschedule", &ashaActor,
		gin.H{"appointment_date": "2024-06-06", "appointment_time": "11:30"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = api.do(http.MethodPost, "/api/v1/appointments/APT001/complete", &doctorActor,
		gin.H{"diagnosis": "Seasonal flu"})
	require.Equal(t, http.StatusOK, status, env.Message)
	var completed struct {
		Appointment model.Appointment `json:"appointment"`
		Treatment   model.Treatment   `json:"treatment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Appointment.Status)
	assert.Equal(t, "TRT001", completed.Treatment.Code)

	status, env = api.do(http.MethodPost, "/api/v1/appointments/APT001/cancel", &ashaActor, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", env.Code)

	status, env = api.do(http.MethodGet, "/api/v1/patients/P01/history", &ashaActor, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), "Seasonal flu")

	events := api.store.Events()
	require.Len(t, events, 4)
	assert.Equal(t, model.EventAppointmentBooked, events[0].EventType)
	assert.Equal(t, model.EventAppointmentCompleted, events[3].EventType)
}

func TestBookingValidation(t *testing.T) {
	api := newTestAPI(t, pinger{})
	asha := api.register("Asha", "asha@example.com")
	actor := model.Actor{ID: asha.ID, Role: model.RolePatient}

	status, env := api.do(http.MethodPost, "/api/v1/appointments", &actor,
		gin.H{"doctor_id": api.doctor.ID, "appointment_date": "2024-06-05", "appointment_time": "9am"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", env.Code)

	status, _ = api.do(http.MethodPost, "/api/v1/appointments", &actor,
		gin.H{"doctor_id": api.doctor.ID, "appointment_date": "2024-06-01", "appointment_time": "09:00"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = api.do(http.MethodPost, "/api/v1/appointments", &actor,
		gin.H{"doctor_id": uuid.New(), "appointment_date": "2024-06-05", "appointment_time": "09:00"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)

	status, _ = api.do(http.MethodPost, "/api/v1/appointments", nil,
		gin.H{"doctor_id": api.doctor.ID, "appointment_date": "2024-06-05", "appointment_time": "09:00"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMalformedBodies(t *testing.T) {
	api := newTestAPI(t, pinger{})
	asha := api.register("Asha", "asha@example.com")
	actor := model.Actor{ID: asha.ID, Role: model.RolePatient}
	doctorActor := model.Actor{ID: api.doctor.ID, Role: model.RoleDoctor}

	badID := `{"doctor_id":"not-a-uuid","appointment_date":"2024-06-05","appointment_time":"09:00"}`
	tests := []struct {
		name   string
		method string
		path   string
		actor  *model.Actor
		body   string
	}{
		{"non-uuid doctor", http.MethodPost, "/api/v1/appointments", &actor, badID},
		{"syntax error", http.MethodPost, "/api/v1/appointments", &actor, `{bad json`},
		{"empty body", http.MethodPost, "/api/v1/appointments", &actor, ``},
		{"wrong type", http.MethodPost, "/api/v1/patients", nil, `{"name":42,"email":"x@example.com"}`},
		{"truncated", http.MethodPut, fmt.Sprintf("/api/v1/doctors/%s/availability", api.doctor.ID), &doctorActor, `{"entries":[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.raw(tt.method, tt.path, tt.actor, tt.body, int64(len(tt.body)))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "validation_error", env.Code)
			assert.Equal(t, "invalid request body", env.Message)
		})
	}

	t.Run("oversized chunked body", func(t *testing.T) {
		body := `{"doctor_id":"` + strings.Repeat("a", 2<<20) + `"}`
		status, env := api.raw(http.MethodPost, "/api/v1/appointments", &actor, body, -1)
		assert.Equal(t, http.StatusRequestEntityTooLarge, status)
		assert.Equal(t, "payload_too_large", env.Code)
	})

	t.Run("chunked empty cancel body", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/appointments", &actor,
			gin.H{"doctor_id": api.doctor.ID, "appointment_date": "2024-06-10", "appointment_time": "09:00"})
		require.Equal(t, http.StatusCreated, status, env.Message)
		var apt model.Appointment
		require.NoError(t, json.Unmarshal(env.Data, &apt))

		status, env = api.raw(http.MethodPost, "/api/v1/appointments/"+apt.Code+"/cancel", &actor, "", -1)
		assert.Equal(t, http.StatusOK, status, env.Message)
	})
}

func TestAvailabilityRoutes(t *testing.T) {
	api := newTestAPI(t, pinger{})
	doctorActor := model.Actor{ID: api.doctor.ID, Role: model.RoleDoctor}
	otherDoctor := model.Actor{ID: uuid.New(), Role: model.RoleDoctor}
	path := fmt.Sprintf("/api/v1/doctors/%s/availability", api.doctor.ID)
	body := gin.H{"entries": []gin.H{
		{"day_of_week": 2, "start_time": "09:00", "end_time": "12:00"},
		{"day_of_week": 2, "start_time": "14:00", "end_time": "17:00"},
	}}

	status, _ := api.do(http.MethodPut, path, &otherDoctor, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(http.MethodPut, path, &doctorActor, body)
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = api.do(http.MethodGet, path+"?from=2024-06-03&days=7", &doctorActor, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var got struct {
		Windows []model.AvailabilityWindow `json:"windows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Windows, 2)
	assert.Equal(t, "2024-06-05", got.Windows[0].Date.String())
	assert.Equal(t, "14:00", got.Windows[1].StartTime.String())

	status, _ = api.do(http.MethodGet, path+"?days=0", &doctorActor, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStatsRequiresStaff(t *testing.T) {
	api := newTestAPI(t, pinger{})
	asha := api.register("Asha", "asha@example.com")

	status, _ := api.do(http.MethodGet, "/api/v1/stats/dashboard", &model.Actor{ID: asha.ID, Role: model.RolePatient}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := api.do(http.MethodGet, "/api/v1/stats/dashboard", &model.Actor{ID: uuid.New(), Role: model.RoleAdmin}, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var dashboard model.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))
	assert.Equal(t, 1, dashboard.Doctors)
	assert.Equal(t, 1, dashboard.Patients)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, pinger{})

	status, _ := api.do(http.MethodGet, "/api/v1/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/api/v1/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	down := newTestAPI(t, pinger{err: fmt.Errorf("connection refused")})
	status, _ = down.do(http.MethodGet, "/api/v1/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, env := down.do(http.MethodGet, "/api/v1/nowhere", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)
}

func TestResponseHeaders(t *testing.T) {
	api := newTestAPI(t, pinger{})

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set(middleware.HeaderAcceptVersion, "2.0")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotAcceptable, w.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
