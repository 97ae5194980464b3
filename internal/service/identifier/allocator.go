package identifier

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const DefaultRetries = 3

// Allocator hands out codes from the storage-backed counter of each category.
type Allocator struct {
	retries int
	logger  *logger.Logger
	metrics *metrics.Scheduling
}

func NewAllocator(retries int, logger *logger.Logger, metrics *metrics.Scheduling) *Allocator {
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &Allocator{
		retries: retries,
		logger:  logger,
		metrics: metrics,
	}
}

// Allocate increments the category counter inside repos' transaction and
// returns the formatted code. A missing counter is seeded from the highest
// code already stored, so codes issued before the counter existed are never
// reissued.
func (a *Allocator) Allocate(ctx context.Context, repos repository.Repositories, cat Category) (string, error) {
	seqs := repos.Sequences()

	for attempt := 1; attempt <= a.retries; attempt++ {
		code, ok, err := a.next(ctx, seqs, cat)
		if err != nil || ok {
			return code, err
		}

		if err := a.seed(ctx, seqs, cat); err != nil {
			return "", err
		}
		a.metrics.IdentifierRetries.WithLabelValues(cat.Name).Inc()

		// a freshly seeded counter is read in the same attempt
		if code, ok, err = a.next(ctx, seqs, cat); err != nil || ok {
			return code, err
		}

		a.logger.Warn("Identifier sequence still missing after seeding", "category", cat.Name, "attempt", attempt)
	}

	return "", errors.Internal(fmt.Errorf("%s identifier allocation gave up after %d attempts", cat.Name, a.retries))
}

func (a *Allocator) next(ctx context.Context, seqs repository.SequenceRepository, cat Category) (string, bool, error) {
	n, ok, err := seqs.Next(ctx, cat.Name)
	if err != nil {
		return "", false, fmt.Errorf("failed to advance %s sequence: %w", cat.Name, err)
	}
	if !ok {
		return "", false, nil
	}
	return Format(cat, n), true, nil
}

// seed creates the counter at the highest code already stored.
func (a *Allocator) seed(ctx context.Context, seqs repository.SequenceRepository, cat Category) error {
	last, err := seqs.LastIssued(ctx, cat.Name)
	if err != nil {
		return fmt.Errorf("failed to read last %s code: %w", cat.Name, err)
	}
	seed := 0
	if last != "" {
		if seed, err = Parse(cat, last); err != nil {
			a.logger.Error(err, "Stored identifier is corrupt", "category", cat.Name, "code", last)
			return err
		}
	}
	if err := seqs.Seed(ctx, cat.Name, seed); err != nil {
		return fmt.Errorf("failed to seed %s sequence: %w", cat.Name, err)
	}

	a.logger.Info("Seeded identifier sequence", "category", cat.Name, "from", seed)
	return nil
}
