package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/cetiassist/asesoria_backend/internal/app"
	"github.com/cetiassist/asesoria_backend/internal/auth"
	"github.com/cetiassist/asesoria_backend/internal/config"
	httpctrl "github.com/cetiassist/asesoria_backend/internal/controller/http"
	"github.com/cetiassist/asesoria_backend/internal/feed"
	"github.com/cetiassist/asesoria_backend/internal/metrics"
	"github.com/cetiassist/asesoria_backend/internal/repository"
	"github.com/cetiassist/asesoria_backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	availabilityRepo := repository.NewAvailabilityRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	availabilityService := service.NewAvailabilityService(availabilityRepo, collector, logger, cfg.PurgeBatchSize)
	bookingService := service.NewBookingService(availabilityRepo, reservationRepo, collector, logger)
	userService := service.NewUserService(userRepo, cfg.AllowedEmailDomain, logger)

	notifier := feed.NewPgNotifier(pool)
	defer notifier.Close()
	watcher := feed.NewWatcher(availabilityRepo, notifier, cfg.FeedRefreshInterval, collector, logger)
	go watcher.Run(ctx)

	sweeper := app.NewSweeper(availabilityService, cfg.PurgeInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	handlers := httpctrl.NewHandlers(userService, availabilityService, bookingService, watcher, tokens, logger)
	router := httpctrl.NewRouter(handlers, cfg.Environment, metrics.Handler(registry))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
