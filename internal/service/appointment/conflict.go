package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

// Checker decides whether a (doctor, date, time) slot is held by an active
// appointment. Only exact matches collide; estimated duration is ignored.
type Checker struct {
	metrics *metrics.Scheduling
}

func NewChecker(metrics *metrics.Scheduling) *Checker {
	return &Checker{metrics: metrics}
}

// IsSlotFree reports whether no active appointment other than exclude holds
// the slot.
func (c *Checker) IsSlotFree(ctx context.Context, repos repository.Repositories, doctorID uuid.UUID, date model.Date, at model.ClockTime, exclude *uuid.UUID) (bool, error) {
	taken, err := repos.Appointments().IsSlotTaken(ctx, doctorID, date, at, exclude)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return !taken, nil
}

// ensureFree returns SlotConflict when the slot is taken.
func (c *Checker) ensureFree(ctx context.Context, repos repository.Repositories, op string, doctorID uuid.UUID, date model.Date, at model.ClockTime, exclude *uuid.UUID) error {
	free, err := c.IsSlotFree(ctx, repos, doctorID, date, at, exclude)
	if err != nil {
		return err
	}
	if !free {
		c.metrics.SlotConflicts.WithLabelValues(op, "check").Inc()
		return errors.SlotConflict(fmt.Sprintf("doctor is already booked on %s at %s", date, at), nil)
	}
	return nil
}

// storageConflict counts a uniqueness violation reported by storage. The
// check and the write are not atomic, so storage is the final arbiter.
func (c *Checker) storageConflict(op string, err error) bool {
	if errors.Is(err, errors.ErrSlotConflict) {
		c.metrics.SlotConflicts.WithLabelValues(op, "storage").Inc()
		return true
	}
	return false
}
