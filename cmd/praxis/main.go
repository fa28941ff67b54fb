package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/praxis-legal/praxis/internal/app"
	"github.com/praxis-legal/praxis/internal/auth"
	"github.com/praxis-legal/praxis/internal/authz"
	"github.com/praxis-legal/praxis/internal/cases"
	"github.com/praxis-legal/praxis/internal/observability"
	"github.com/praxis-legal/praxis/internal/platform/cache"
	"github.com/praxis-legal/praxis/internal/platform/db"
	"github.com/praxis-legal/praxis/internal/shared"
	"github.com/praxis-legal/praxis/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "praxis_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	metrics := observability.NewMetrics()
	authzMetrics := observability.NewAuthzMetrics(metrics.Registerer())

	subjectStore := authz.NewCachedStore(authz.NewPostgresStore(dbpool), redisClient, cfg.AuthzCacheTTL, logger)

	var sink authz.AuditSink
	if cfg.AuditQueueEnabled {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		queueSink := jobs.NewQueueSink(asynqClient)
		defer func() {
			if err := queueSink.Close(); err != nil {
				logger.Warn("queue sink close", slog.Any("error", err))
			}
		}()
		sink = queueSink
	} else {
		sink = authz.NewPostgresAuditSink(dbpool)
	}

	engine := authz.NewEngine(subjectStore, sink, logger,
		authz.WithUnknownKindPolicy(authz.ParseUnknownKindPolicy(cfg.AuthzUnknownCondition)),
		authz.WithMetrics(authzMetrics),
	)
	guard := authz.Middleware{Engine: engine, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	authzHandler := authz.NewHandler(logger, engine, guard)

	casesRepo := cases.NewRepository(dbpool)
	casesService := cases.NewService(casesRepo)
	casesHandler := cases.NewHandler(logger, casesService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthHandler:    authHandler,
		AuthzHandler:   authzHandler,
		CasesHandler:   casesHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
