package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func jwtApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		return c.SendString(actor.ID + "|" + actor.Role)
	})
	return app
}

func TestJWTProtectedPopulatesActor(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "role": "Instructor", "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := jwtApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "user-1|instructor", string(body))
}

func TestJWTProtectedIgnoresUnknownRoles(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-9", "roles": []string{"superuser", "Admin"}, "exp": time.Now().Add(time.Hour).Unix()})
	unknown := signToken(t, testSecret, jwt.MapClaims{"sub": "user-10", "role": "superuser", "exp": time.Now().Add(time.Hour).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := jwtApp().Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "user-9|admin", string(body))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+unknown)
	resp, err = jwtApp().Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	require.Equal(t, "user-10|", string(body))
}

func TestJWTProtectedAcceptsQueryToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-2", "role": "student", "exp": time.Now().Add(time.Hour).Unix()})

	resp, err := jwtApp().Test(httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsInvalidTokens(t *testing.T) {
	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "u", "role": "student", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongSecret := signToken(t, "other", jwt.MapClaims{"sub": "u", "role": "student"})
	noSubject := signToken(t, testSecret, jwt.MapClaims{"role": "student"})

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + wrongSecret,
		"no subject":   "Bearer " + noSubject,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := jwtApp().Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestOptionalJWTAllowsVisitors(t *testing.T) {
	app := fiber.New()
	app.Use(OptionalJWT(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		return c.SendString(actor.ID + "|" + actor.Role)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "|", string(body))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other", jwt.MapClaims{"sub": "u", "role": "student"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	require.Equal(t, "|", string(body))

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-3", "role": "student", "exp": time.Now().Add(time.Hour).Unix()})
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	require.Equal(t, "user-3|student", string(body))
}

func TestCorrelationIDEchoesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(CorrelationIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(HeaderCorrelationID))
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "abc-123", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(HeaderCorrelationID))
}
