package handlerUtil

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/pkg/log"
	"DrowsyGuard/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Monitoring domain errors and the machine readable codes clients switch on.
var domainCodes = []struct {
	err  error
	code string
}{
	{monitoring.ErrSessionNotFound, "SESSION_NOT_FOUND"},
	{monitoring.ErrSessionEnded, "SESSION_ENDED"},
	{monitoring.ErrSessionSourceMismatch, "SESSION_SOURCE_MISMATCH"},
	{monitoring.ErrInvalidPhoneNumber, "INVALID_PHONE"},
	{monitoring.ErrInvalidSource, "INVALID_SOURCE"},
	{monitoring.ErrInvalidShape, "INVALID_SHAPE"},
	{monitoring.ErrInvalidFrame, "INVALID_FRAME"},
	{monitoring.ErrInvalidVideoFile, "INVALID_VIDEO"},
	{monitoring.ErrVideoTooLarge, "VIDEO_TOO_LARGE"},
	{monitoring.ErrVideoDecodeFailed, "VIDEO_DECODE_FAILED"},
	{monitoring.ErrLandmarkUnavailable, "LANDMARK_UNAVAILABLE"},
	{monitoring.ErrStateStoreFailure, "STATE_STORE_UNAVAILABLE"},
}

// Code returns the client facing code of a monitoring error, or "" when err
// is not one.
func Code(err error) string {
	for _, d := range domainCodes {
		if errors.Is(err, d.err) {
			return d.code
		}
	}
	return ""
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	if code := Code(err); code != "" {
		status := response.StatusOf(err, fiber.StatusInternalServerError)
		fields["code"] = code

		if status >= fiber.StatusInternalServerError {
			h.logger.WithFields(fields).Error("Operation failed with unavailable dependency")
		} else {
			h.logger.WithFields(fields).Warn("Operation rejected")
		}

		return c.Status(status).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		fields["code"] = respErr.Code
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithFields(fields).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
