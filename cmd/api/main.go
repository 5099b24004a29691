package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DKhorkov/FastApi/internal/config"
	"github.com/DKhorkov/FastApi/internal/dbx"
	"github.com/DKhorkov/FastApi/internal/handler"
	"github.com/DKhorkov/FastApi/internal/jobs"
	"github.com/DKhorkov/FastApi/internal/repository"
	"github.com/DKhorkov/FastApi/internal/service"
	"github.com/DKhorkov/FastApi/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var (
		repos repository.Manager
		tx    dbx.Transactor
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		repos = repository.NewMemoryStore()
		tx = dbx.NoTx{}
	default:
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatalf("Failed to ping database: %v", err)
		}
		pg := repository.NewPostgresManager()
		if err := pg.RunMigrations(ctx, db); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		repos = pg
		tx = dbx.NewSQLTransactor(db)
	}

	// Initialize layers
	svc := service.NewService(tx, repos, logger, cfg.TokenTTL)
	if cfg.MailEnabled() {
		svc.SetMailer(email.NewSender(cfg, logger))
	}
	h := handler.NewHandler(svc, logger, cfg.CookieSecure)

	if cfg.PurgeSchedule != "" {
		scheduler, err := jobs.NewScheduler(cfg.PurgeSchedule, svc, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule token purge: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Setup router
	r := mux.NewRouter()
	h.Routes(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting %s on %s", cfg.AppName, addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Graceful shutdown failed: %v", err)
		}
	}
}
