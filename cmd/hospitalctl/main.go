package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/hospital-api/internal/config"
	"github.com/jwalitptl/hospital-api/internal/repository/postgres"
	"github.com/jwalitptl/hospital-api/internal/service/availability"
	"github.com/jwalitptl/hospital-api/internal/service/stats"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

func main() {
	if err := newRootCmd(openPostgres).Execute(); err != nil {
		os.Exit(1)
	}
}

// openPostgres builds the command environment from the regular service
// configuration.
func openPostgres(ctx context.Context) (*env, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Scheduling.TimeZone()
	if err != nil {
		return nil, nil, err
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
	}).WithFields(map[string]interface{}{"component": "hospitalctl"})

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := postgres.NewStore(db)

	return &env{
		store: store,
		availability: availability.NewService(availability.Config{
			HorizonDays: cfg.Scheduling.HorizonDays,
		}, appLogger, metrics.NewScheduling(prometheus.NewRegistry(), "hospital")),
		stats: stats.NewService(store.Stats()),
		loc:   loc,
		now:   time.Now,
	}, func() { db.Close() }, nil
}
