package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeRequestBody(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{
			name: "phone masked",
			path: "/api/v1/sessions",
			body: `{"phone_number":"6281234567890","source":"webcam"}`,
			want: `{"phone_number":"*********7890","source":"webcam"}`,
		},
		{
			name: "landmarks summarised",
			path: "/api/v1/sessions/abc/landmarks",
			body: `{"faces":[{"shape":[{"x":1,"y":2}]},{"shape":[]}]}`,
			want: `{"faces":2}`,
		},
		{
			name: "secret hidden",
			path: "/api/v1/sessions",
			body: `{"token":"abc"}`,
			want: `{"token":"[SECRET]"}`,
		},
		{
			name: "not json",
			path: "/api/v1/sessions",
			body: `phone=123`,
			want: "[non-JSON body]",
		},
		{
			name: "too large",
			path: "/api/v1/sessions",
			body: `{"x":"` + strings.Repeat("a", maxLoggedBody) + `"}`,
			want: "[body too large]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeRequestBody(tt.path, []byte(tt.body)))
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	mw := New(nil)
	app.Use(mw.NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(mw.GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(RequestIDKey)
	assert.Len(t, generated, 26)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDKey, "client-supplied")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "client-supplied", resp.Header.Get(RequestIDKey))
}

func TestRateLimiter(t *testing.T) {
	limiter := newRateLimiter(limitOf(1), 2)
	l := limiter.GetLimiterFrom("10.0.0.1")

	assert.Same(t, l, limiter.GetLimiterFrom("10.0.0.1"))
	assert.NotSame(t, l, limiter.GetLimiterFrom("10.0.0.2"))

	now := time.Now()
	assert.True(t, l.AllowN(now, 1))
	assert.True(t, l.AllowN(now, 1))
	assert.False(t, l.AllowN(now, 1))
}
