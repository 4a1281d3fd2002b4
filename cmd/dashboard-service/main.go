package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicpro/dashboard-service/internal/dashboard"
	"github.com/clinicpro/dashboard-service/internal/upstream"
	"github.com/clinicpro/dashboard-service/pkg/config"
	"github.com/clinicpro/dashboard-service/pkg/logger"
	"github.com/clinicpro/dashboard-service/pkg/monitoring"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize metrics
	var metrics *monitoring.MetricsCollector
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetricsCollector("dashboard-service")
	}

	// Initialize upstream client and dashboard service
	client := upstream.NewClient(&cfg.Upstream, logger, metrics)
	service := dashboard.NewService(cfg, client, logger, metrics)

	// Start service in a goroutine
	go func() {
		logger.Infof("Starting Dashboard Service on port %d", cfg.Server.Port)
		if err := service.Start(); err != nil {
			logger.Fatalf("Failed to start Dashboard Service: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Dashboard Service...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := service.Stop(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Dashboard Service stopped")
}
