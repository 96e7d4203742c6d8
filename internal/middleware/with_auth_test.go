package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/policy"
)

func withAuthApp(userID, role string, opts middleware.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals(middleware.LocalUserID, userID)
			c.Locals(middleware.LocalUserRole, role)
		}
		return c.Next()
	})
	app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}, opts))
	return app
}

func TestWithAuthStudentRole(t *testing.T) {
	app := withAuthApp("s1", "Student", middleware.AuthOptions{Role: policy.RoleStudent})
	require.Equal(t, fiber.StatusNoContent, perform(t, app).StatusCode)
}

func TestWithAuthStudentRoleDenied(t *testing.T) {
	app := withAuthApp("i1", "instructor", middleware.AuthOptions{Role: policy.RoleStudent})
	require.Equal(t, fiber.StatusForbidden, perform(t, app).StatusCode)
}

func TestWithAuthAnyRequiresUserWhenAsked(t *testing.T) {
	app := withAuthApp("", "", middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true})
	require.Equal(t, fiber.StatusUnauthorized, perform(t, app).StatusCode)
}

func TestWithAuthAnyAllowsAnonymousWhenOptedIn(t *testing.T) {
	app := withAuthApp("", "", middleware.AuthOptions{Role: middleware.AuthRoleAny})
	require.Equal(t, fiber.StatusNoContent, perform(t, app).StatusCode)
}

func perform(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return resp
}
