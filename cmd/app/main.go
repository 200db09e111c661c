package main

import (
	"DrowsyGuard/internal/config"
	"DrowsyGuard/pkg/landmark"
	"DrowsyGuard/pkg/log"
	"DrowsyGuard/pkg/redis"
	"DrowsyGuard/pkg/video"
	"context"
	"github.com/joho/godotenv"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.NewLogger().Fatalf("Error loading .env file: %v", err)
	}
	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New(logger)
	landmarks := landmark.New(landmark.ConfigFromEnv(), logger)
	decoder := video.NewDecoder(video.ConfigFromEnv(), logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithRedisServer(redisServer),
		config.WithLandmarkProvider(landmarks),
		config.WithVideoDecoder(decoder),
		config.WithMonitoringConfig(),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithAlarm(),
		config.WithWhatsappClient(ctx),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
