package monitoringHandler

import (
	"DrowsyGuard/internal/api/monitoring"
	contextPkg "DrowsyGuard/pkg/context"
	"DrowsyGuard/pkg/handlerUtil"
	"DrowsyGuard/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const videoTimeout = 10 * time.Minute

func (h *MonitoringHandler) StartSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req monitoring.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, monitoring.ErrBadRequest, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	session, err := h.monitoringService.StartSession(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, session)
	}
}

func (h *MonitoringHandler) GetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := h.monitoringService.GetSession(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, session)
	}
}

func (h *MonitoringHandler) StopSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	session, err := h.monitoringService.StopSession(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "stop_session")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, session)
	}
}

func (h *MonitoringHandler) ListAlerts(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	alerts, err := h.monitoringService.ListAlerts(c, ctx.Params("id"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_alerts")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"alerts": alerts,
			"total":  len(alerts),
		})
	}
}

func (h *MonitoringHandler) ProcessLandmarks(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := ctx.Params("id")
	c, cancel := context.WithTimeout(contextPkg.WithSessionID(contextPkg.FromFiberCtx(ctx), sessionID), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req monitoring.LandmarksRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, monitoring.ErrBadRequest, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.monitoringService.ProcessLandmarks(c, sessionID, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_landmarks")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
	}
}

func (h *MonitoringHandler) ProcessVideo(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := ctx.Params("id")
	c, cancel := context.WithTimeout(contextPkg.WithSessionID(contextPkg.FromFiberCtx(ctx), sessionID), videoTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"path":       ctx.Path(),
	}).Debug("Processing video upload")

	file, err := ctx.FormFile("video")
	if err != nil {
		return errHandler.Handle(ctx, requestID, monitoring.ErrInvalidVideoFile, ctx.Path(), "parse_video_file")
	}

	summary, err := h.monitoringService.ProcessVideo(c, sessionID, file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_video")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, summary)
	}
}
