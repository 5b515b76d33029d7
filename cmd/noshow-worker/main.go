package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kaeky/Yum-Yum-sub001/internal/di"
	"github.com/kaeky/Yum-Yum-sub001/pkg/config"
	"github.com/kaeky/Yum-Yum-sub001/pkg/logger"
)

// Standalone no-show sweeper. Runs the same scan the API process runs,
// for deployments that prefer a dedicated worker.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := "info"
	if cfg.IsDevelopment() {
		logLevel = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       logLevel,
		ServiceName: "noshow-worker",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting no-show worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to build container: %v", err))
	}
	defer container.Close()

	if err := container.NoShowWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start no-show worker: %v", err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down no-show worker...")
	container.NoShowWorker.Stop()

	swept, lastScan := container.NoShowWorker.Stats()
	appLog.Info(fmt.Sprintf("No-show worker exited (swept=%d, last scan=%s)", swept, lastScan.Format("2006-01-02T15:04:05Z07:00")))
}
