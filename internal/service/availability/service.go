package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const (
	DefaultHorizonDays = 7
	DefaultCacheTTL    = 5 * time.Minute
)

type Config struct {
	HorizonDays int
	CacheTTL    time.Duration
}

type Service struct {
	cache   *cache.Cache
	horizon int
	logger  *logger.Logger
	metrics *metrics.Scheduling
}

func NewService(cfg Config, logger *logger.Logger, metrics *metrics.Scheduling) *Service {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		horizon: cfg.HorizonDays,
		logger:  logger,
		metrics: metrics,
	}
}

// Horizon is the default number of days expanded by Windows.
func (s *Service) Horizon() int { return s.horizon }

// Weekly returns the doctor's weekly pattern, served from cache when possible.
func (s *Service) Weekly(ctx context.Context, repos repository.Repositories, doctorID uuid.UUID) ([]*model.WeeklyAvailability, error) {
	if _, err := repos.Doctors().Get(ctx, doctorID); err != nil {
		return nil, err
	}

	key := doctorID.String()
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.AvailabilityLookups.WithLabelValues("hit").Inc()
		return cached.([]*model.WeeklyAvailability), nil
	}
	s.metrics.AvailabilityLookups.WithLabelValues("miss").Inc()

	entries, err := repos.Doctors().ListAvailability(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	s.cache.Set(key, entries, cache.DefaultExpiration)
	return entries, nil
}

// Windows expands the doctor's pattern over days starting at from. A
// non-positive days uses the configured horizon.
func (s *Service) Windows(ctx context.Context, repos repository.Repositories, doctorID uuid.UUID, from model.Date, days int) ([]model.AvailabilityWindow, error) {
	if days <= 0 {
		days = s.horizon
	}
	entries, err := s.Weekly(ctx, repos, doctorID)
	if err != nil {
		return nil, err
	}
	return Expand(entries, from, days), nil
}

// Invalidate drops the cached pattern of a doctor.
func (s *Service) Invalidate(doctorID uuid.UUID) {
	s.cache.Delete(doctorID.String())
}

// SetWeekly replaces the weekly pattern of a doctor. Doctors may edit their
// own pattern, admins any pattern.
func (s *Service) SetWeekly(ctx context.Context, repos repository.Repositories, actor model.Actor, doctorID uuid.UUID, inputs []model.WeeklyAvailabilityInput) ([]*model.WeeklyAvailability, error) {
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if !actor.IsDoctor(doctorID) {
			return nil, errors.Forbidden("doctors may only edit their own availability")
		}
	case model.RolePatient:
		return nil, errors.Forbidden("patients cannot edit availability")
	default:
		return nil, errors.Forbidden("")
	}

	entries, err := buildEntries(doctorID, inputs)
	if err != nil {
		return nil, err
	}

	if _, err := repos.Doctors().Get(ctx, doctorID); err != nil {
		return nil, err
	}
	if err := repos.Doctors().ReplaceAvailability(ctx, doctorID, entries); err != nil {
		return nil, fmt.Errorf("failed to replace availability: %w", err)
	}
	s.Invalidate(doctorID)

	s.logger.Info("Weekly availability replaced", "doctor_id", doctorID.String(), "entries", len(entries))
	return entries, nil
}

func buildEntries(doctorID uuid.UUID, inputs []model.WeeklyAvailabilityInput) ([]*model.WeeklyAvailability, error) {
	seen := make(map[string]bool, len(inputs))
	entries := make([]*model.WeeklyAvailability, 0, len(inputs))

	for i, in := range inputs {
		if in.DayOfWeek == nil || *in.DayOfWeek < 0 || *in.DayOfWeek > 6 {
			return nil, errors.Validation(fmt.Sprintf("entry %d: day_of_week must be between 0 and 6", i), nil)
		}
		start, err := model.ParseClockTime(in.StartTime)
		if err != nil {
			return nil, errors.Validation(fmt.Sprintf("entry %d: invalid start_time", i), err)
		}
		end, err := model.ParseClockTime(in.EndTime)
		if err != nil {
			return nil, errors.Validation(fmt.Sprintf("entry %d: invalid end_time", i), err)
		}
		if !start.Before(end) {
			return nil, errors.Validation(fmt.Sprintf("entry %d: start_time must be before end_time", i), nil)
		}

		key := fmt.Sprintf("%d/%s", *in.DayOfWeek, start)
		if seen[key] {
			return nil, errors.Validation(fmt.Sprintf("entry %d: duplicate day_of_week and start_time", i), nil)
		}
		seen[key] = true

		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		entries = append(entries, &model.WeeklyAvailability{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			DayOfWeek:   *in.DayOfWeek,
			StartTime:   start,
			EndTime:     end,
			IsAvailable: available,
		})
	}
	return entries, nil
}
