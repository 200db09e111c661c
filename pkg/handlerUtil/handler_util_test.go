package handlerUtil

import (
	"DrowsyGuard/internal/api/monitoring"
	"DrowsyGuard/pkg/response"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := New(logger)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"domain error", monitoring.ErrSessionNotFound, fiber.StatusNotFound, "SESSION_NOT_FOUND", "session not found"},
		{"wrapped domain error", fmt.Errorf("loading: %w", monitoring.ErrLandmarkUnavailable), fiber.StatusServiceUnavailable, "LANDMARK_UNAVAILABLE", "loading: landmark service unavailable"},
		{"generic response error", response.NewError(fiber.StatusTeapot, "short and stout"), fiber.StatusTeapot, "", "short and stout"},
		{"unexpected", errors.New("disk on fire"), fiber.StatusInternalServerError, "", "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return h.Handle(c, "req-1", tt.err, c.Path(), "test")
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "SESSION_ENDED", Code(monitoring.ErrSessionEnded))
	assert.Equal(t, "", Code(monitoring.ErrInternalServerError))
	assert.Equal(t, "", Code(errors.New("other")))
}
