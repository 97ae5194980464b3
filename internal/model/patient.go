package model

import (
	"github.com/google/uuid"
)

type Patient struct {
	Base
	UserID      *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Code        string     `db:"patient_code" json:"patient_code"`
	Name        string     `db:"name" json:"name"`
	Email       string     `db:"email" json:"email"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	DateOfBirth *Date      `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      string     `db:"gender" json:"gender,omitempty"`
	BloodGroup  string     `db:"blood_group" json:"blood_group,omitempty"`
	Address     string     `db:"address" json:"address,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
}

type RegisterPatientRequest struct {
	UserID      *uuid.UUID `json:"user_id"`
	Name        string     `json:"name" binding:"required,max=100"`
	Email       string     `json:"email" binding:"required,email"`
	Phone       string     `json:"phone" binding:"omitempty,max=20"`
	DateOfBirth string     `json:"date_of_birth" binding:"omitempty,isodate"`
	Gender      string     `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	BloodGroup  string     `json:"blood_group" binding:"omitempty,max=5"`
	Address     string     `json:"address"`
}

// PatientHistoryEntry pairs a completed appointment with its treatments.
type PatientHistoryEntry struct {
	Appointment *Appointment `json:"appointment"`
	Treatments  []*Treatment `json:"treatments"`
}
