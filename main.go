package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user-service/internal/config"
	"user-service/internal/database"
	"user-service/internal/kafka"
	"user-service/internal/logger"
	users_db "user-service/internal/users/db"
	"user-service/internal/users/service"
	"user-service/internal/users/user_api"

	"github.com/joho/godotenv"
)

type publisher interface {
	service.EventPublisher
	Close() error
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig, logger *logger.Logger) publisher {
	if !cfg.Enabled {
		logger.Info("KAFKA", "Kafka disabled, lifecycle events will not be published")
		return kafka.NopPublisher{}
	}

	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := kafka.EnsureTopic(ensureCtx, cfg.Brokers, cfg.Topic); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		logger.Info("KAFKA", fmt.Sprintf("Topic %s ensured", cfg.Topic))
	}

	producer := kafka.NewProducer(cfg.Brokers, cfg.Topic)
	logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Brokers))
	return producer
}

func main() {
	envErr := godotenv.Load()

	logCfg := config.LoadLog(os.Getenv)
	logger, err := logger.New(logger.Options{Service: user_api.ServiceName, Dir: logCfg.Dir, Level: logCfg.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("APP", "Starting User Service initialization")
	if envErr != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("CONFIG", err.Error())
	}
	if !cfg.Security.HashPasswords {
		logger.LogSecurity("PLAINTEXT_PASSWORDS", "HASH_PASSWORDS=false, passwords are stored and returned in plaintext")
	}
	if cfg.API.LegacyStatus {
		logger.Info("CONFIG", "Legacy status mode on, every response is 200")
	}

	ctx := context.Background()

	logger.Info("DATABASE", fmt.Sprintf("Using %s connections to %s", cfg.Database.ConnectMode, cfg.Database.Redacted()))
	gateway, err := database.New(ctx, cfg.Database, database.WithLogger(logger))
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to create database gateway: %v", err))
	}
	defer gateway.Close()

	if err := gateway.Ping(ctx); err != nil {
		logger.Warn("DATABASE", fmt.Sprintf("PostgreSQL not reachable yet: %v", err))
	} else {
		logger.Info("DATABASE", "✅ PostgreSQL connection successful")
	}

	events := newPublisher(ctx, cfg.Kafka, logger)
	defer events.Close()

	userService := service.NewUserService(
		gateway,
		users_db.NewDB(logger),
		service.NewPasswordHasher(cfg.Security.HashPasswords, cfg.Security.BcryptCost),
		events,
		logger,
	)

	logger.Info("HTTP", "Setting up router and middleware")
	handler := user_api.NewHandler(userService, cfg, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      user_api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 User Service running on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ User Service shutdown complete")
	}
}
