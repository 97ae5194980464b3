package model

import (
	"github.com/google/uuid"
)

// Treatment records the outcome of a completed appointment.
type Treatment struct {
	Base
	Code                 string    `db:"treatment_code" json:"treatment_code"`
	AppointmentID        uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Diagnosis            string    `db:"diagnosis" json:"diagnosis"`
	Symptoms             string    `db:"symptoms" json:"symptoms,omitempty"`
	Prescription         string    `db:"prescription" json:"prescription,omitempty"`
	TreatmentPlan        string    `db:"treatment_plan" json:"treatment_plan,omitempty"`
	Notes                string    `db:"treatment_notes" json:"notes,omitempty"`
	FollowUpDate         *Date     `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpInstructions string    `db:"follow_up_instructions" json:"follow_up_instructions,omitempty"`
}
