package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/httpserver"
	"taskboard/internal/repository"
	"taskboard/pkg/db"
	"taskboard/pkg/logger"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logger.NewLogger(cfg.Log)
	defer logg.Sync()

	logg.Info("Starting task store...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("port", cfg.Server.Port),
		zap.Bool("auth", cfg.JWT.Secret != ""),
	)

	dbConn, err := db.NewConnection(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repository.EnsureSchema(schemaCtx, dbConn); err != nil {
		cancel()
		logg.Fatal("Failed to create schema", zap.Error(err))
	}
	cancel()

	taskRepo := repository.NewTaskRepository(dbConn, logg)
	noteRepo := repository.NewNoteRepository(dbConn, logg)

	router := httpserver.NewRouter(
		handler.NewTaskHandler(taskRepo, logg),
		handler.NewNoteHandler(noteRepo, logg),
		cfg.JWT.Secret,
		dbConn,
		logg,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.Info("HTTP server listening", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down task store gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("HTTP server shutdown error", zap.Error(err))
	}
	logg.Info("task store shutdown complete")
}
