package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestObservabilityPassesThroughErrors(t *testing.T) {
	app := fiber.New()
	app.Use(Observability(zerolog.Nop()))
	app.Get("/api/v1/courses/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "course not found")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/courses/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLatencyClassification(t *testing.T) {
	require.Equal(t, "<=25ms", latencyBucket(10*time.Millisecond))
	require.Equal(t, "<=250ms", latencyBucket(200*time.Millisecond))
	require.Equal(t, ">500ms", latencyBucket(2*time.Second))

	require.True(t, longLived("/api/v1/notifications/stream"))
	require.True(t, longLived("/api/v1/notifications/ws"))
	require.False(t, longLived("/api/v1/notifications"))
}
