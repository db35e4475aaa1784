package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"gamification-engine/pkg/cache"
	"gamification-engine/pkg/config"
	"gamification-engine/pkg/db"
	"gamification-engine/pkg/engine"
	"gamification-engine/pkg/handler"
	"gamification-engine/pkg/migrations"
	"gamification-engine/pkg/repository"
	"gamification-engine/pkg/scheduler"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()

	cfg := config.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	log.Info("Starting gamification engine...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbCfg := db.NewConfigFromEnv()
	conn, err := db.Connect(ctx, dbCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer conn.Close()
	log.WithFields(logrus.Fields{
		"host":     dbCfg.Host,
		"database": dbCfg.Database,
	}).Info("Database connected")

	if err := migrations.RunMigrations(conn, cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Migrations applied")

	todayCache := cache.NewTodayCache()
	eng := engine.NewEngine(engine.Config{
		Users:                    repository.NewPostgresUserRepository(conn),
		Catalog:                  repository.NewPostgresCatalogRepository(conn),
		Values:                   repository.NewPostgresValueRepository(conn),
		Progress:                 repository.NewPostgresProgressRepository(conn),
		Translations:             repository.NewPostgresTranslationRepository(conn),
		GoalEvals:                cache.NewGoalEvaluationCache(),
		AchEvals:                 cache.NewSerializedAchievementCache(),
		Levels:                   cache.NewLevelCache(),
		Today:                    todayCache,
		Variables:                cache.NewVariableCache(),
		Logger:                   log,
		EnableUserAuthentication: cfg.EnableUserAuthentication,
		FallbackLanguage:         cfg.FallbackLanguage,
	})
	if err := eng.RefreshRules(ctx); err != nil {
		log.WithError(err).Fatal("Failed to build rules index")
	}

	janitor, err := scheduler.NewJanitor(scheduler.Config{
		Today:  todayCache,
		Rules:  eng,
		Logger: log,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to set up janitor")
	}
	janitor.Start()
	defer janitor.Stop()

	mux := http.NewServeMux()
	handler.NewAPI(eng, log).Register(mux)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		log.WithField("port", cfg.MetricsPort).Info("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-errCh:
		log.WithError(err).Error("Server failed, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown failed")
	}
	log.Info("Shutdown complete")
}
