package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharonlnl728/content-audit-platform/docs"
	"github.com/sharonlnl728/content-audit-platform/internal/cache"
	"github.com/sharonlnl728/content-audit-platform/internal/config"
	"github.com/sharonlnl728/content-audit-platform/internal/database"
	"github.com/sharonlnl728/content-audit-platform/internal/database/migration"
	handlers "github.com/sharonlnl728/content-audit-platform/internal/http/handler"
	"github.com/sharonlnl728/content-audit-platform/internal/http/middleware"
	"github.com/sharonlnl728/content-audit-platform/internal/logging"
	"github.com/sharonlnl728/content-audit-platform/internal/metrics"
	"github.com/sharonlnl728/content-audit-platform/internal/otel"
	"github.com/sharonlnl728/content-audit-platform/internal/repository/postgres"
	"github.com/sharonlnl728/content-audit-platform/internal/scorer"
	"github.com/sharonlnl728/content-audit-platform/internal/service"
	"github.com/sharonlnl728/content-audit-platform/internal/session"
	"github.com/sharonlnl728/content-audit-platform/internal/storage"
	"github.com/sharonlnl728/content-audit-platform/internal/study"
	"github.com/sharonlnl728/content-audit-platform/internal/worker"
)

// Base64 images travel in the JSON body.
const bodyLimit = 16 << 20

const shutdownTimeout = 15 * time.Second

// @title Content Audit API
// @version 1.0
// @description Text and image moderation with a reviewable audit ledger.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	log := logging.New(os.Stdout, loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server_exit", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) error {
	loc := cfg.Location()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}

	// PostgreSQL through database/sql with otelsql instrumentation
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	// Redis backs both the result cache and the session token store
	redisCache, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// Image archive is optional; without MinIO base64 images are not kept
	var archive *storage.Archive
	if cfg.MinIO.Enabled() {
		objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		archive = storage.NewArchive(objStore, storage.DefaultPreviewTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}
	auditMetrics, err := metrics.New(reg)
	if err != nil {
		return err
	}

	pool := worker.NewPool(cfg.Worker, log, auditMetrics)

	svc := service.NewAuditService(service.Dependencies{
		Repo:     postgres.NewAuditPostgres(db),
		Cache:    redisCache,
		Scorer:   scorer.NewClient(cfg.AI),
		Study:    study.NewClient(cfg.Study, log, auditMetrics),
		Queue:    pool,
		Archive:  archive,
		Metrics:  auditMetrics,
		Logger:   log,
		CacheTTL: cfg.Audit.CacheTTL(),
		Location: loc,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON request logs share the application logger
	app.Use(middleware.RequestLogger(log))
	app.Use(httpMetrics.Handler())

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Audit routes resolve the caller first, then apply the per-caller limit
	guards := []fiber.Handler{middleware.Identity(session.NewCacheStore(redisCache))}
	if limiter := middleware.NewRateLimiter(cfg.RateLimit); limiter != nil {
		guards = append(guards, limiter.Handler())
	}
	handlers.RegisterRoutes(app, handlers.HealthCheck(db, redisCache), svc, guards...)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	listenErr := make(chan error, 1)
	go func() {
		log.Info("server_started", map[string]any{"addr": ":" + cfg.Port})
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("server_stopping", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting requests, then drain queued ledger writes before closing the DB
	errs := []error{
		app.ShutdownWithContext(shutdownCtx),
		pool.Shutdown(shutdownCtx),
		shutdownTracing(shutdownCtx),
	}
	return errors.Join(errs...)
}
