package model

import (
	"github.com/google/uuid"
)

type Department struct {
	Base
	Name        string `db:"name" json:"name"`
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description,omitempty"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

type Doctor struct {
	Base
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	DepartmentID    *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	LicenseNumber   string     `db:"license_number" json:"license_number"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	Specialization  string     `db:"specialization" json:"specialization,omitempty"`
	ExperienceYears int        `db:"experience_years" json:"experience_years"`
	IsAvailable     bool       `db:"is_available" json:"is_available"`
}

// WeeklyAvailability is one entry of a doctor's recurring pattern.
// DayOfWeek counts from Monday (0) to Sunday (6).
type WeeklyAvailability struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   ClockTime `db:"start_time" json:"start_time"`
	EndTime     ClockTime `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}

// AvailabilityWindow is a weekly entry projected onto a calendar date.
type AvailabilityWindow struct {
	Date      Date      `json:"date"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
}

type WeeklyAvailabilityInput struct {
	DayOfWeek   *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime   string `json:"start_time" binding:"required,hhmm"`
	EndTime     string `json:"end_time" binding:"required,hhmm"`
	IsAvailable *bool  `json:"is_available"`
}

type SetAvailabilityRequest struct {
	Entries []WeeklyAvailabilityInput `json:"entries" binding:"dive"`
}
