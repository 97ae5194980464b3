package model

import (
	"github.com/google/uuid"
)

type DashboardStats struct {
	Doctors      int                       `json:"total_doctors"`
	Patients     int                       `json:"total_patients"`
	Appointments int                       `json:"total_appointments"`
	Departments  int                       `json:"total_departments"`
	Treatments   int                       `json:"total_treatments"`
	Booked       int                       `json:"booked_appointments"`
	Completed    int                       `json:"completed_appointments"`
	Cancelled    int                       `json:"cancelled_appointments"`
	ByStatus     map[AppointmentStatus]int `json:"by_status"`
}

type DoctorStats struct {
	DoctorID uuid.UUID                 `json:"doctor_id"`
	Total    int                       `json:"total"`
	ByStatus map[AppointmentStatus]int `json:"by_status"`
}

// StatusCount is one row of a group-by-status query.
type StatusCount struct {
	Status AppointmentStatus `db:"status"`
	Count  int               `db:"count"`
}
