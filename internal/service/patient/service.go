package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/identifier"
	"github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
)

type Service struct {
	ids    *identifier.Allocator
	now    func() time.Time
	logger *logger.Logger
}

func NewService(ids *identifier.Allocator, logger *logger.Logger) *Service {
	return &Service{
		ids:    ids,
		now:    time.Now,
		logger: logger,
	}
}

// Register creates a patient profile with the next P code. The code and the
// profile are written in the caller's transaction.
func (s *Service) Register(ctx context.Context, repos repository.Repositories, req *model.RegisterPatientRequest) (*model.Patient, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, errors.Validation("name and email are required", nil)
	}

	var dob *model.Date
	if req.DateOfBirth != "" {
		d, err := model.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, errors.Validation("invalid date_of_birth", err)
		}
		if !d.Before(model.DateOf(s.now())) {
			return nil, errors.Validation("date_of_birth must be in the past", nil)
		}
		dob = &d
	}

	code, err := s.ids.Allocate(ctx, repos, identifier.Patient)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Base:        model.Base{ID: uuid.New()},
		UserID:      req.UserID,
		Code:        code,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		DateOfBirth: dob,
		Gender:      req.Gender,
		BloodGroup:  req.BloodGroup,
		Address:     req.Address,
		IsActive:    true,
	}
	patient.Touch(s.now())

	if err := repos.Patients().Create(ctx, patient); err != nil {
		if errors.Is(err, errors.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.logger.Info("Patient registered", "patient", patient.Code)
	return patient, nil
}

// GetByCode returns a patient visible to the actor. A patient asking for
// any code but their own gets Forbidden, whether or not the code exists.
func (s *Service) GetByCode(ctx context.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Patient, error) {
	switch actor.Role {
	case model.RoleAdmin, model.RoleDoctor:
		return repos.Patients().GetByCode(ctx, strings.TrimSpace(code))
	case model.RolePatient:
		patient, err := repos.Patients().GetByCode(ctx, strings.TrimSpace(code))
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if err != nil || !actor.IsPatient(patient.ID) {
			return nil, errors.Forbidden("patients may only view their own profile")
		}
		return patient, nil
	default:
		return nil, errors.Forbidden("")
	}
}
