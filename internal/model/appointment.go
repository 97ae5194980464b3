package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "Scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "Confirmed"
	AppointmentStatusInProgress AppointmentStatus = "In-Progress"
	AppointmentStatusCompleted  AppointmentStatus = "Completed"
	AppointmentStatusCancelled  AppointmentStatus = "Cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "No-Show"
)

// AppointmentStatuses lists every status in lifecycle order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

// ActiveStatuses are the statuses that hold a slot.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusInProgress,
}

func (s AppointmentStatus) IsValid() bool {
	for _, v := range AppointmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) IsActive() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusInProgress:
		return true
	default:
		return false
	}
}

func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes Scheduled -> Confirmed -> In-Progress -> Completed
// with Cancelled and No-Show reachable from every non-terminal status.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if !s.IsActive() {
		return false
	}
	switch next {
	case AppointmentStatusConfirmed:
		return s == AppointmentStatusScheduled
	case AppointmentStatusInProgress:
		return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

type AppointmentPriority string

const (
	PriorityLow    AppointmentPriority = "Low"
	PriorityNormal AppointmentPriority = "Normal"
	PriorityHigh   AppointmentPriority = "High"
	PriorityUrgent AppointmentPriority = "Urgent"
)

const (
	DefaultAppointmentType     = "Consultation"
	DefaultEstimatedDuration   = 30
	DefaultAppointmentPriority = PriorityNormal
)

type Appointment struct {
	Base
	Code              string              `db:"appointment_code" json:"appointment_code"`
	DoctorID          uuid.UUID           `db:"doctor_id" json:"doctor_id"`
	PatientID         uuid.UUID           `db:"patient_id" json:"patient_id"`
	Date              Date                `db:"appointment_date" json:"appointment_date"`
	Time              ClockTime           `db:"appointment_time" json:"appointment_time"`
	Status            AppointmentStatus   `db:"status" json:"status"`
	Type              string              `db:"appointment_type" json:"appointment_type"`
	Reason            string              `db:"reason" json:"reason,omitempty"`
	Notes             string              `db:"notes" json:"notes,omitempty"`
	Priority          AppointmentPriority `db:"priority" json:"priority"`
	EstimatedDuration int                 `db:"estimated_duration" json:"estimated_duration"`
	CancelReason      *string             `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type BookAppointmentRequest struct {
	PatientID *uuid.UUID          `json:"patient_id"`
	DoctorID  uuid.UUID           `json:"doctor_id" binding:"required"`
	Date      string              `json:"appointment_date" binding:"required,isodate"`
	Time      string              `json:"appointment_time" binding:"required,hhmm"`
	Type      string              `json:"appointment_type" binding:"omitempty,max=50"`
	Reason    string              `json:"reason" binding:"max=1000"`
	Notes     string              `json:"notes" binding:"max=1000"`
	Priority  AppointmentPriority `json:"priority" binding:"omitempty,oneof=Low Normal High Urgent"`
}

type CompleteAppointmentRequest struct {
	Diagnosis            string `json:"diagnosis"`
	Symptoms             string `json:"symptoms"`
	Prescription         string `json:"prescription"`
	TreatmentPlan        string `json:"treatment_plan"`
	Notes                string `json:"notes"`
	FollowUpDate         string `json:"follow_up_date" binding:"omitempty,isodate"`
	FollowUpInstructions string `json:"follow_up_instructions"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"appointment_date" binding:"required,isodate"`
	Time string `json:"appointment_time" binding:"required,hhmm"`
}

type AppointmentFilters struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    AppointmentStatus
	From      *Date
	To        *Date
}
