package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusRetry     OutboxStatus = "RETRY"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Appointment event types written to the outbox.
const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentStarted     = "APPOINTMENT_STARTED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
}

// AppointmentEvent is the payload of every appointment outbox event.
type AppointmentEvent struct {
	AppointmentID   uuid.UUID         `json:"appointment_id"`
	AppointmentCode string            `json:"appointment_code"`
	DoctorID        uuid.UUID         `json:"doctor_id"`
	PatientID       uuid.UUID         `json:"patient_id"`
	Date            Date              `json:"appointment_date"`
	Time            ClockTime         `json:"appointment_time"`
	Status          AppointmentStatus `json:"status"`
	PreviousDate    *Date             `json:"previous_date,omitempty"`
	PreviousTime    *ClockTime        `json:"previous_time,omitempty"`
	TreatmentCode   string            `json:"treatment_code,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	ActorRole       string            `json:"actor_role"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// Envelope is the message published to the broker for an outbox event.
type Envelope struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
