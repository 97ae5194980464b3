package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/config"
	appointmentHandler "github.com/jwalitptl/hospital-api/internal/handler/appointment"
	doctorHandler "github.com/jwalitptl/hospital-api/internal/handler/doctor"
	"github.com/jwalitptl/hospital-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/hospital-api/internal/handler/patient"
	promHandler "github.com/jwalitptl/hospital-api/internal/handler/prometheus"
	statsHandler "github.com/jwalitptl/hospital-api/internal/handler/stats"
	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/repository/postgres"
	"github.com/jwalitptl/hospital-api/internal/router"
	appointmentService "github.com/jwalitptl/hospital-api/internal/service/appointment"
	availabilityService "github.com/jwalitptl/hospital-api/internal/service/availability"
	"github.com/jwalitptl/hospital-api/internal/service/identifier"
	patientService "github.com/jwalitptl/hospital-api/internal/service/patient"
	statsService "github.com/jwalitptl/hospital-api/internal/service/stats"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = *appLogger.Zerolog()

	loc, err := cfg.Scheduling.TimeZone()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid scheduling location")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	store := postgres.NewStore(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, cfg.Database.Name),
	)
	schedulingMetrics := metrics.NewScheduling(registry, "hospital")

	// Initialize services
	ids := identifier.NewAllocator(cfg.Scheduling.IdentifierRetries, appLogger, schedulingMetrics)
	appointmentSvc := appointmentService.NewService(appointmentService.Config{
		CancellationWindow: cfg.Scheduling.CancellationWindow,
		Location:           loc,
	}, ids, appLogger, schedulingMetrics)
	availabilitySvc := availabilityService.NewService(availabilityService.Config{
		HorizonDays: cfg.Scheduling.HorizonDays,
		CacheTTL:    cfg.Scheduling.AvailabilityCacheTTL,
	}, appLogger, schedulingMetrics)
	patientSvc := patientService.NewService(ids, appLogger)
	statsSvc := statsService.NewService(store.Stats())

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Setup router
	r := router.NewRouter(middleware.NewAuthMiddleware(jwtSvc), router.Handlers{
		Appointment: appointmentHandler.NewHandler(store, appointmentSvc),
		Doctor:      doctorHandler.NewHandler(store, availabilitySvc, loc),
		Patient:     patientHandler.NewHandler(store, patientSvc, appointmentSvc),
		Stats:       statsHandler.NewHandler(store, statsSvc),
		Health:      health.NewHandler(db),
		Metrics:     promHandler.New(registry),
	}, router.RouterConfig{
		RequestTimeout:   cfg.Server.RequestTimeout,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit: middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RequestsPerSecond,
			Burst: cfg.RateLimit.Burst,
		},
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowCredentials: cfg.Server.AllowCredentials,
			MaxAge:           12 * time.Hour,
		},
		Security:     middleware.SecurityConfig{HSTSMaxAge: cfg.Server.HSTSMaxAge},
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MetricsPath:  cfg.Server.MetricsPath,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
