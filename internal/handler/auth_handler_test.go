package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/models"
)

func TestRegisterLoginAndProfile(t *testing.T) {
	app := setupApp(t)

	resp, env := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "supersecret",
		"role":     "instructor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	registered := decode[dto.AuthResponse](t, env)
	require.Equal(t, models.UserStatusPendingApproval, registered.User.Status)

	resp, _ = app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Student",
		"email":    "student@example.com",
		"password": "supersecret",
		"role":     "student",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	login := decode[dto.AuthResponse](t, env)
	require.NotEmpty(t, login.Token)

	resp, env = app.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	require.Equal(t, "ada@example.com", decode[dto.UserResponse](t, env).Email)

	resp, _ = app.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginIsRateLimited(t *testing.T) {
	app := setupApp(t)
	credentials := map[string]string{"email": "nobody@example.com", "password": "wrong-password"}

	for i := 0; i < 3; i++ {
		resp, _ := app.do(t, http.MethodPost, "/api/v1/auth/login", "", credentials)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, env := app.do(t, http.MethodPost, "/api/v1/auth/login", "", credentials)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.False(t, env.Success)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)
	_, studentToken := app.seedUser(t, "student")

	for _, path := range []string{"/api/v1/notifications", "/api/v1/enrollments", "/api/v1/student/dashboard", "/api/v1/admin/overview"} {
		resp, env := app.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		require.False(t, env.Success)
	}

	resp, _ := app.do(t, http.MethodGet, "/api/v1/notifications", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = app.do(t, http.MethodGet, "/api/v1/admin/overview", studentToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := app.do(t, http.MethodGet, "/api/v1/student/dashboard", studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
}

func TestHealthCheckReportsDependencies(t *testing.T) {
	cfg := config.Config{AppName: "LMS Test", AppEnv: "test"}

	app := fiber.New()
	app.Get("/healthy", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
	}))
	app.Get("/degraded", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthy", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/degraded", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	testApp := setupApp(t)
	resp, env := testApp.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)
	require.Equal(t, "LMS Test", resp.Header.Get("X-Application"))
}
