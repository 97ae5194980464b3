// Package stats computes dashboard figures on demand from storage.
package stats

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/errors"
)

type Service struct {
	repo repository.StatsRepository
}

func NewService(repo repository.StatsRepository) *Service {
	return &Service{repo: repo}
}

// Dashboard returns entity counts and the appointment status breakdown.
// Booked counts appointments that are Scheduled or Confirmed.
func (s *Service) Dashboard(ctx context.Context, actor model.Actor) (*model.DashboardStats, error) {
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor, model.RolePatient:
		return nil, errors.Forbidden("dashboard is restricted to administrators")
	default:
		return nil, errors.Forbidden("")
	}

	var stats model.DashboardStats
	counters := []struct {
		name  string
		dst   *int
		count func(context.Context) (int, error)
	}{
		{"doctors", &stats.Doctors, s.repo.CountDoctors},
		{"patients", &stats.Patients, s.repo.CountPatients},
		{"departments", &stats.Departments, s.repo.CountDepartments},
		{"treatments", &stats.Treatments, s.repo.CountTreatments},
	}
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
		*c.dst = n
	}

	byStatus, total, err := s.statusCounts(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats.ByStatus = byStatus
	stats.Appointments = total
	stats.Booked = byStatus[model.AppointmentStatusScheduled] + byStatus[model.AppointmentStatusConfirmed]
	stats.Completed = byStatus[model.AppointmentStatusCompleted]
	stats.Cancelled = byStatus[model.AppointmentStatusCancelled]
	return &stats, nil
}

// DoctorBreakdown returns the status breakdown of one doctor's appointments.
func (s *Service) DoctorBreakdown(ctx context.Context, actor model.Actor, doctorID uuid.UUID) (*model.DoctorStats, error) {
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if !actor.IsDoctor(doctorID) {
			return nil, errors.Forbidden("doctors may only view their own statistics")
		}
	case model.RolePatient:
		return nil, errors.Forbidden("patients cannot view doctor statistics")
	default:
		return nil, errors.Forbidden("")
	}

	byStatus, total, err := s.statusCounts(ctx, &doctorID)
	if err != nil {
		return nil, err
	}
	return &model.DoctorStats{DoctorID: doctorID, Total: total, ByStatus: byStatus}, nil
}

// statusCounts always reports every status, with zero for absent ones.
func (s *Service) statusCounts(ctx context.Context, doctorID *uuid.UUID) (map[model.AppointmentStatus]int, int, error) {
	rows, err := s.repo.AppointmentStatusCounts(ctx, doctorID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments by status: %w", err)
	}
	byStatus := make(map[model.AppointmentStatus]int, len(model.AppointmentStatuses))
	for _, status := range model.AppointmentStatuses {
		byStatus[status] = 0
	}
	total := 0
	for _, row := range rows {
		byStatus[row.Status] += row.Count
		total += row.Count
	}
	return byStatus, total, nil
}
