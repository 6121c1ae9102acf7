package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/forgeworks/agentdispatch/internal/adapter/awsbatch"
	"github.com/forgeworks/agentdispatch/internal/adapter/awsfargate"
	"github.com/forgeworks/agentdispatch/internal/adapter/awslambda"
	"github.com/forgeworks/agentdispatch/internal/adapter/github"
	adhttp "github.com/forgeworks/agentdispatch/internal/adapter/http"
	adnats "github.com/forgeworks/agentdispatch/internal/adapter/nats"
	otelx "github.com/forgeworks/agentdispatch/internal/adapter/otel"
	"github.com/forgeworks/agentdispatch/internal/adapter/postgres"
	"github.com/forgeworks/agentdispatch/internal/adapter/ristretto"
	"github.com/forgeworks/agentdispatch/internal/config"
	"github.com/forgeworks/agentdispatch/internal/domain/assignment"
	"github.com/forgeworks/agentdispatch/internal/logger"
	"github.com/forgeworks/agentdispatch/internal/port/compute"
	"github.com/forgeworks/agentdispatch/internal/port/tracker"
	"github.com/forgeworks/agentdispatch/internal/resilience"
	"github.com/forgeworks/agentdispatch/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"aws_region", cfg.AWS.Region,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := otelx.Init(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := otelx.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := adnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Duplicate delivery observer
	seen, err := ristretto.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("delivery cache: %w", err)
	}
	defer seen.Close()

	// --- Assignment table ---
	table, err := assignment.LoadFromFile(cfg.Agents.File)
	if err != nil {
		return fmt.Errorf("assignment table: %w", err)
	}
	slog.Info("assignment table loaded", "roles", len(table.Roles()))

	// --- Compute dispatchers ---
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("aws config: %w", err)
	}

	registry, err := compute.NewRegistry(
		awslambda.New(lambda.NewFromConfig(awsCfg), cfg.AWS.Lambda.FunctionName),
		awsfargate.New(ecs.NewFromConfig(awsCfg), awsfargate.Config{
			Cluster:        cfg.AWS.Fargate.Cluster,
			TaskDefinition: cfg.AWS.Fargate.TaskDefinition,
			Container:      cfg.AWS.Fargate.Container,
			Subnets:        cfg.AWS.Fargate.Subnets,
			SecurityGroups: cfg.AWS.Fargate.SecurityGroups,
			AssignPublicIP: cfg.AWS.Fargate.AssignPublicIP,
		}),
		awsbatch.New(batch.NewFromConfig(awsCfg), awsbatch.Config{
			JobQueue:      cfg.AWS.Batch.JobQueue,
			JobDefinition: cfg.AWS.Batch.JobDefinition,
		}),
	)
	if err != nil {
		return fmt.Errorf("compute registry: %w", err)
	}

	// --- Issue tracker write-back ---
	var issueTracker tracker.Tracker
	if cfg.GitHub.Token != "" {
		issueTracker = github.NewTracker(cfg.GitHub.Token)
		slog.Info("github notifier enabled")
	} else {
		slog.Info("no github token configured, issue write-back disabled")
	}

	// --- Pipeline ---
	store := postgres.NewDispatchStore(pool)
	pipeline, err := service.NewDispatchService(service.Deps{
		Table:    table,
		Registry: registry,
		Tracker:  issueTracker,
		Breaker:  resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout),
		Store:    store,
		Queue:    queue,
		Seen:     seen,
		Metrics:  metrics,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	// --- HTTP ---
	handlers := &adhttp.Handlers{
		Dispatch: pipeline,
		Agents:   table,
		Store:    store,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(otelx.Middleware(cfg.Logging.Service))

	adhttp.MountRoutes(r, handlers, cfg.Webhook.GitHubSecret)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
