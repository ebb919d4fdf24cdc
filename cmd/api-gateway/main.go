package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sis-registration-api/api/swagger"
	"github.com/noah-isme/sis-registration-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sis-registration-api/internal/middleware"
	"github.com/noah-isme/sis-registration-api/internal/repository"
	"github.com/noah-isme/sis-registration-api/internal/service"
	"github.com/noah-isme/sis-registration-api/pkg/cache"
	"github.com/noah-isme/sis-registration-api/pkg/config"
	"github.com/noah-isme/sis-registration-api/pkg/database"
	"github.com/noah-isme/sis-registration-api/pkg/jobs"
	"github.com/noah-isme/sis-registration-api/pkg/logger"
)

// @title SIS Registration API
// @version 1.0.0
// @description Student registration scheduling: automatic and manual lecture/lab booking.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	shutdownTimeout  = 15 * time.Second
	periodSyncBudget = 30 * time.Second
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// scheduling keeps working without redis, only unlocked
	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, per-student scheduling lock disabled", zap.Error(err))
		rdb = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := buildApp(cfg, db, rdb, logr)
	app.activity.Start(ctx)

	cron := jobs.NewScheduler(logr, periodSyncBudget)
	if cfg.Scheduler.PeriodSyncEnable {
		if err := cron.Register("registration-period-sync", cfg.Scheduler.PeriodSyncCron, app.periods.SyncStatuses); err != nil {
			logr.Fatal("failed to register period sync", zap.Error(err))
		}
	}
	cron.Start()

	if app.limiter != nil {
		go app.limiter.Run(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	cron.Stop(shutdownCtx)
	app.activity.Stop()
	if err := app.locks.Close(); err != nil {
		logr.Warn("failed to close redis client", zap.Error(err))
	}
	logr.Info("server stopped")
}

type application struct {
	schedules *handler.ScheduleHandler
	metricsH  *handler.MetricsHandler
	auth      *service.AuthService
	metrics   *service.MetricsService
	activity  *service.ActivityLogService
	periods   *service.RegistrationPeriodService
	locks     *repository.LockRepository
	limiter   *internalmiddleware.RateLimiter
}

func buildApp(cfg *config.Config, db *sqlx.DB, rdb *redis.Client, logr *zap.Logger) *application {
	validate := validator.New()
	metrics := service.NewMetricsService()

	terms := repository.NewTermRepository(db)
	courses := repository.NewCourseRepository(db)
	slots := repository.NewAvailableSlotRepository(db)
	entries := repository.NewScheduleEntryRepository(db)
	periodRepo := repository.NewRegistrationPeriodRepository(db)
	grades := repository.NewGradeRepository(db)
	locks := repository.NewLockRepository(rdb, logr)

	activity := service.NewActivityLogService(repository.NewActivityLogRepository(db), service.ActivityLogConfig{
		Workers:    cfg.Scheduler.ActivityWorkers,
		BufferSize: cfg.Scheduler.ActivityBuffer,
		MaxRetries: cfg.Scheduler.ActivityRetries,
	}, logr)
	gate := service.NewRegistrationWindowGate(periodRepo, time.Now)

	generator := service.NewScheduleGeneratorService(terms, courses, slots, entries, grades, gate, locks, activity, metrics, validate, logr,
		service.ScheduleGeneratorConfig{LockTTL: cfg.Scheduler.LockTTL})
	selector := service.NewSlotSelectionService(terms, courses, slots, entries, grades, gate, locks, activity, metrics, validate, logr, cfg.Scheduler.LockTTL)
	exporter := service.NewTimetableExportService(terms, entries, courses, nil, nil, logr)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	app := &application{
		schedules: handler.NewScheduleHandler(generator, selector, exporter),
		metricsH:  handler.NewMetricsHandler(metrics, checks, logr),
		auth: service.NewAuthService(logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		}),
		metrics:  metrics,
		activity: activity,
		periods:  service.NewRegistrationPeriodService(periodRepo, metrics, logr),
		locks:    locks,
	}
	if cfg.RateLimit.Enabled {
		app.limiter = internalmiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, metrics)
	}
	return app
}
