package config

import (
	"DrowsyGuard/database/postgres"
	monitoringHandler "DrowsyGuard/internal/api/monitoring/handler"
	monitoringRepository "DrowsyGuard/internal/api/monitoring/repository"
	monitoringService "DrowsyGuard/internal/api/monitoring/service"
	"DrowsyGuard/internal/middleware"
	"DrowsyGuard/pkg/alarm"
	"DrowsyGuard/pkg/landmark"
	"DrowsyGuard/pkg/log"
	"DrowsyGuard/pkg/redis"
	"DrowsyGuard/pkg/s3"
	"DrowsyGuard/pkg/utils"
	"DrowsyGuard/pkg/video"
	"DrowsyGuard/pkg/whatsapp"
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"os"
	"time"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	db               *sqlx.DB
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	handlers         []handler
	redisServer      redis.IRedis
	landmarks        landmark.IProvider
	whatsappClient   whatsapp.IWhatsappSender
	s3Client         s3.ItfS3
	alarm            alarm.IAlarm
	decoder          video.IDecoder
	monitoringConfig *monitoringService.MonitoringConfig
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithLandmarkProvider(provider landmark.IProvider) ServerOption {
	return func(s *Server) error {
		s.landmarks = provider
		return nil
	}
}

func WithVideoDecoder(decoder video.IDecoder) ServerOption {
	return func(s *Server) error {
		s.decoder = decoder
		return nil
	}
}

func WithMonitoringConfig() ServerOption {
	return func(s *Server) error {
		cfg, err := NewMonitoringConfig()
		if err != nil {
			return fmt.Errorf("invalid classifier configuration: %w", err)
		}
		s.monitoringConfig = cfg
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithS3Client is optional: without a bucket, uploads are not archived and
// the alarm is served from the static asset.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("S3 disabled: %v", err)
			}
			return nil
		}
		s.s3Client = client
		return nil
	}
}

func WithAlarm() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before alarm")
		}
		s.alarm = alarm.New(s.log, s.s3Client)
		return nil
	}
}

// WithWhatsappClient pairs against the device store in the main database.
// WHATSAPP_ENABLED=false swaps in a sender that only logs.
func WithWhatsappClient(ctx context.Context) ServerOption {
	return func(s *Server) error {
		if os.Getenv("WHATSAPP_ENABLED") == "false" {
			s.whatsappClient = whatsapp.NewNoop(s.log)
			return nil
		}

		client, err := whatsapp.New(ctx, postgres.FormatDSN(), s.log)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			}
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Monitoring Domain
	monitoringRepo := monitoringRepository.New(s.db, s.log)
	monitoringServices := monitoringService.NewMonitoringService(
		s.log,
		monitoringRepo,
		s.landmarks,
		s.whatsappClient,
		s.redisServer,
		s.alarm,
		s.s3Client,
		s.decoder,
		s.utils,
		s.monitoringConfig,
	)
	monitoringHandlers := monitoringHandler.New(s.log, s.validator, s.middleware, monitoringServices)

	s.setupHealthCheck()
	s.engine.Static("/assets", getEnv("ASSETS_DIR", "./assets"))
	s.handlers = append(s.handlers, monitoringHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.ErrorWithTraceID(log.Fields{
				"request_id": s.middleware.GetRequestID(c),
				"path":       c.Path(),
				"panic":      fmt.Sprint(e),
			}, "Recovered from panic")
		},
	}))
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := getEnv("APP_PORT", "3000")

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, then releases every client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.engine.ShutdownWithContext(ctx)

	if s.landmarks != nil {
		s.landmarks.Close()
	}
	if s.whatsappClient != nil {
		if derr := s.whatsappClient.Disconnect(); derr != nil {
			s.log.Warnf("Failed to disconnect WhatsApp: %v", derr)
		}
	}
	if s.redisServer != nil {
		_ = s.redisServer.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(ctx.Context(), 2*time.Second)
		defer cancel()

		redisHealthy := s.redisServer != nil && s.redisServer.Ping(c) == nil

		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
			"dependencies": fiber.Map{
				"landmark_service": s.landmarks != nil && s.landmarks.IsConnected(),
				"whatsapp":         s.whatsappClient != nil && s.whatsappClient.IsConnected(),
				"redis":            redisHealthy,
				"s3":               s.s3Client != nil,
			},
		})
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
