package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/api"
	"github.com/mevshield/mevshield/internal/analyzer"
	"github.com/mevshield/mevshield/internal/attack"
	"github.com/mevshield/mevshield/internal/config"
	"github.com/mevshield/mevshield/internal/database"
	"github.com/mevshield/mevshield/internal/protection"
	"github.com/mevshield/mevshield/internal/ws"
	"github.com/mevshield/mevshield/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// The store must be ready before any submission is accepted.
	db, err := database.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	store := protection.NewGormTradeStore(db)
	submissionSvc := protection.NewService(zapLogger, store)
	riskAnalyzer := analyzer.New(zapLogger, cfg.Analyzer)
	generator := attack.NewGenerator(zapLogger, cfg.Attack)
	hub := ws.NewHub(zapLogger, cfg.Server.ProtectionMode)

	// Periodic synthetic attacks feed the broadcast stream alongside
	// manual triggers.
	var attackTicker *time.Ticker
	if cfg.Attack.Interval > 0 {
		attackTicker = time.NewTicker(cfg.Attack.Interval)
		go func() {
			for range attackTicker.C {
				hub.Broadcast(generator.Generate())
			}
		}()
	}

	apiServer := api.NewServer(zapLogger, submissionSvc, riskAnalyzer, generator, hub)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		zapLogger.Info("Starting API server", zap.String("addr", addr))
		if err := apiServer.Start(addr); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	// Wait for interrupt to shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	if attackTicker != nil {
		attackTicker.Stop()
	}
	if err := hub.Shutdown(); err != nil {
		zapLogger.Error("Failed to shut down feed hub", zap.Error(err))
	}

	zapLogger.Info("Server exited properly")
}
