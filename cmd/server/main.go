package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/takopi/backend/internal/auth"
	"github.com/takopi/backend/internal/handlers"
	"github.com/takopi/backend/internal/mailer"
	"github.com/takopi/backend/internal/meshy"
	"github.com/takopi/backend/internal/metrics"
	"github.com/takopi/backend/internal/router"
	"github.com/takopi/backend/pkg/config"
	"github.com/takopi/backend/pkg/firebase"
	"github.com/takopi/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, log.WithField("component", "db"))
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	repos := router.NewRepositories(db)
	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	err = router.Migrate(migrateCtx, db, repos, log)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to migrate storage")
	}

	// Firebase is optional; without it only local accounts can sign in
	var firebaseAuth handlers.FirebaseTokenVerifier
	firebaseClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case err == nil:
		firebaseAuth = firebaseClient
		log.Info("Firebase login enabled")
	case errors.Is(err, firebase.ErrNotConfigured):
		log.Info("Firebase login disabled")
	default:
		log.WithError(err).Fatal("Failed to initialize Firebase")
	}

	meshyClient := meshy.NewClient(meshy.Config{
		APIKey:  cfg.MeshyAPIKey,
		BaseURL: cfg.MeshyBaseURL,
		Timeout: cfg.MeshyTimeout,
	})
	if !meshyClient.Configured() {
		log.Warn("MESHY_API_KEY not set, AI generation routes will return 503")
	}

	notifier := mailer.NewNotifier(
		mailer.NewSender(cfg.ResendAPIKey, cfg.EmailFrom, log),
		cfg.AppBaseURL,
		log.WithField("component", "mailer"),
	)

	services := router.Services{
		Tokens:   auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry),
		Firebase: firebaseAuth,
		Meshy:    meshyClient,
		Mailer:   notifier,
		Health: map[string]handlers.Pinger{
			"postgres": db.PingPostgres,
			"mongo":    db.PingMongo,
		},
	}

	// Create Echo instance
	e := echo.New()
	router.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, cfg, repos, services, log, ctx.Done())

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.MetricsPort).Info("Metrics listener started")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics listener failed")
		}
	}()

	// Start server
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server started")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Metrics listener shutdown failed")
	}
	notifier.Wait()
	log.WithFields(logrus.Fields{"env": cfg.Env}).Info("Server stopped")
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
