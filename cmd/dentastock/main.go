package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dentastock/dentastock/internal/app"
	"github.com/dentastock/dentastock/internal/auth"
	"github.com/dentastock/dentastock/internal/catalog"
	"github.com/dentastock/dentastock/internal/describer"
	"github.com/dentastock/dentastock/internal/partners"
	"github.com/dentastock/dentastock/internal/platform/db"
	"github.com/dentastock/dentastock/internal/procurement"
	"github.com/dentastock/dentastock/internal/reports"
	"github.com/dentastock/dentastock/internal/sales"
	"github.com/dentastock/dentastock/internal/shared"
	"github.com/dentastock/dentastock/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	sessionManager := shared.NewSessionManager(redisClient, "dentastock_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	authService := auth.NewService(usersRepo)
	catalogService := catalog.NewService(catalog.NewRepository(pool))
	partnersService := partners.NewService(partners.NewRepository(pool))
	salesService := sales.NewService(sales.NewRepository(pool))
	procurementService := procurement.NewService(procurement.NewRepository(pool))
	reportsService := reports.NewService(reports.NewRepository(pool), reports.NewCache(redisClient))
	describerClient := describer.NewClient(cfg.GeminiURL, cfg.GeminiAPIKey)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        auth.NewHandler(logger, authService, sessionManager),
		UsersHandler:       users.NewHandler(logger, usersService),
		CatalogHandler:     catalog.NewHandler(logger, catalogService),
		PartnersHandler:    partners.NewHandler(logger, partnersService),
		SalesHandler:       sales.NewHandler(logger, salesService),
		ProcurementHandler: procurement.NewHandler(logger, procurementService),
		ReportsHandler:     reports.NewHandler(logger, reportsService),
		DescriberHandler:   describer.NewHandler(logger, describerClient),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
