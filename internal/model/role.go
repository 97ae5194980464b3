package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of actor kinds that can call into scheduling.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleDoctor
	RolePatient
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleDoctor:
		return "doctor"
	case RolePatient:
		return "patient"
	default:
		return "unknown"
	}
}

// ParseRole maps the role claim of a token to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "doctor":
		return RoleDoctor, nil
	case "patient":
		return RolePatient, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

// Actor is the authenticated caller. For doctors and patients ID is the
// profile key, for admins it is the user key.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsDoctor reports whether the actor is the doctor with the given profile key.
func (a Actor) IsDoctor(doctorID uuid.UUID) bool {
	return a.Role == RoleDoctor && a.ID == doctorID
}

// IsPatient reports whether the actor is the patient with the given profile key.
func (a Actor) IsPatient(patientID uuid.UUID) bool {
	return a.Role == RolePatient && a.ID == patientID
}
