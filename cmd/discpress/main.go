package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discpress/config"
	HTTPAdapter "discpress/internal/adapter/http"
	"discpress/internal/adapter/notify"
	sqlitestore "discpress/internal/adapter/storage/sqlite"
	"discpress/internal/adapter/tool"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/process"
	"discpress/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting discpress on port %d, concurrency=%d", cfg.Port, cfg.Concurrency)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error.Printf("failed to create data directory: %v", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.TempUserDir, 0755); err != nil {
		logger.Error.Printf("failed to create temp user directory: %v", err)
		os.Exit(1)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()
	history := sqlitestore.NewHistory(store)

	bus := service.NewEventBus()
	jobStore := service.NewStore(bus)
	registry := process.NewRegistry()
	notifier := notify.NewBusNotifier(bus)

	runner := service.NewRunner(jobStore, registry, process.NewSpawner(), notifier, history, tool.Paths{
		Chdman:      cfg.ChdmanPath,
		DolphinTool: cfg.DolphinToolPath,
		TempUserDir: cfg.TempUserDir,
	})

	scheduler := service.NewScheduler(jobStore, registry, runner, cfg.Concurrency)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	scheduler.Run(schedCtx)

	queue := service.NewQueueService(jobStore, registry, scheduler)

	auth, err := HTTPAdapter.NewTokenAuth(cfg.AuthToken)
	if err != nil {
		logger.Error.Printf("failed to initialize auth: %v", err)
		os.Exit(1)
	}
	server := HTTPAdapter.NewServer(queue, history, bus, auth)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}

		// Stop the scheduler, then tear down every live process and
		// wait for the terminations to finish.
		schedCancel()
		registry.Shutdown()

		logger.Info.Printf("shutdown complete")
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Printf("server failed: %v", err)
		os.Exit(1)
	}
}
