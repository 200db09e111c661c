package monitoringHandler

import (
	monitoringService "DrowsyGuard/internal/api/monitoring/service"
	"DrowsyGuard/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type MonitoringHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	monitoringService monitoringService.IMonitoringService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ms monitoringService.IMonitoringService,
) *MonitoringHandler {
	return &MonitoringHandler{
		log:               log,
		validator:         validate,
		middleware:        middleware,
		monitoringService: ms,
	}
}

func (h *MonitoringHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/sessions", h.middleware.NewRateLimiter, h.StartSession)

	sessions := srv.Group("/sessions/:id")
	sessions.Get("/", h.GetSession)
	sessions.Get("/alerts", h.ListAlerts)
	sessions.Post("/stop", h.StopSession)

	// Frames
	sessions.Post("/landmarks", h.ProcessLandmarks)
	sessions.Post("/video", h.middleware.NewRateLimiter, h.ProcessVideo)
	sessions.Use("/ws", wsMiddleware)
	sessions.Get("/ws", websocket.New(h.handleStream))
}
