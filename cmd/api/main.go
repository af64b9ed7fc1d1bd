package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/handler"
	"github.com/noah-isme/slotbook-api/internal/middleware"
	"github.com/noah-isme/slotbook-api/internal/repository"
	"github.com/noah-isme/slotbook-api/internal/service"
	"github.com/noah-isme/slotbook-api/pkg/cache"
	"github.com/noah-isme/slotbook-api/pkg/config"
	"github.com/noah-isme/slotbook-api/pkg/database"
	"github.com/noah-isme/slotbook-api/pkg/jobs"
	"github.com/noah-isme/slotbook-api/pkg/linktoken"
	"github.com/noah-isme/slotbook-api/pkg/logger"
)

// @title Slotbook API
// @version 1.0.0
// @description Weekly availability, slot generation and public booking.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Availability.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	scheduleRepo := repository.NewScheduleRepository(db)
	eventTypeRepo := repository.NewEventTypeRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	hostRepo := repository.NewHostRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, redisClient != nil)

	var invalidation *service.InvalidationService
	queue := jobs.NewQueue("availability-invalidation", func(ctx context.Context, job jobs.Job) error {
		return invalidation.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.InvalidationWorkers,
		MaxRetries: cfg.Jobs.InvalidationRetries,
		Observer:   metrics.ObserveJob,
		Logger:     logr,
	})
	invalidation = service.NewInvalidationService(queue, cacheSvc, metrics, logr)
	queue.Start(ctx)
	defer queue.Stop()

	scheduler := jobs.NewScheduler(time.UTC, logr)
	if cacheSvc.Enabled() && cfg.Availability.CacheFlushCron != "" {
		if err := scheduler.Add("availability-cache-flush", cfg.Availability.CacheFlushCron, cacheSvc.Flush); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	scheduleSvc := service.NewScheduleService(scheduleRepo, invalidation, validate, logr, service.ScheduleServiceConfig{
		DefaultTimezone: cfg.Availability.DefaultTimezone,
		Granularity:     cfg.Availability.SlotGranularityMinutes,
	})
	eventTypeSvc := service.NewEventTypeService(eventTypeRepo, invalidation, validate, logr)
	availabilitySvc := service.NewAvailabilityService(eventTypeRepo, scheduleRepo, bookingRepo, cacheSvc, metrics, validate, logr, service.AvailabilityServiceConfig{
		DefaultTimezone:     cfg.Availability.DefaultTimezone,
		DefaultMaxDaysAhead: cfg.Availability.DefaultMaxDaysAhead,
		CacheTTL:            cfg.Availability.CacheTTL,
	})
	tokenSvc := service.NewTokenService(hostRepo, logr, service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})
	bookingSvc := service.NewBookingService(service.BookingServiceDeps{
		Repo:        bookingRepo,
		Slots:       availabilitySvc,
		EventTypes:  eventTypeRepo,
		Hosts:       hostRepo,
		Signer:      linktoken.NewSigner(cfg.Booking.CancelLinkSecret, cfg.Booking.CancelLinkTTL),
		Invalidator: invalidation,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})
	publicSvc := service.NewPublicService(hostRepo, eventTypeRepo, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = cache.Pinger{Client: redisClient}
	}

	router := newRouter(cfg, logr, routerDeps{
		metrics:      metrics,
		tokens:       tokenSvc,
		limiter:      middleware.NewRateLimiter(cfg.Booking.RateLimitPerMinute, cfg.Booking.RateBurst, logr),
		availability: handler.NewAvailabilityHandler(scheduleSvc),
		eventTypes:   handler.NewEventTypeHandler(eventTypeSvc),
		meetings:     handler.NewMeetingHandler(bookingSvc),
		public:       handler.NewPublicHandler(availabilitySvc, bookingSvc, publicSvc),
		health:       handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
