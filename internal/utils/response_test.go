package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/utils"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Data    map[string]interface{} `json:"data"`
	Details []utils.FieldError     `json:"details"`
}

func TestSendSuccessDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "", map[string]string{"hello": "world"})
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload envelope
	decode(t, resp, &payload)
	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.Equal(t, "world", payload.Data["hello"])
	require.Empty(t, payload.Error)
}

func TestHandleErrorMapsStatuses(t *testing.T) {
	type request struct {
		Title string `validate:"required"`
	}
	validationErr := validator.New().Struct(request{})

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"typed forbidden", appErrors.Clone(appErrors.ErrForbidden, "not enrolled"), fiber.StatusForbidden, "FORBIDDEN"},
		{"wrapped typed", errors.Join(errors.New("ctx"), appErrors.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{"record not found", gorm.ErrRecordNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{"duplicate key", gorm.ErrDuplicatedKey, fiber.StatusBadRequest, "CONFLICT"},
		{"validation", validationErr, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"fiber error", fiber.NewError(fiber.StatusTooManyRequests, "slow down"), fiber.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return utils.HandleError(c, tc.err)
			})

			resp := performRequest(t, app, http.MethodGet, "/")
			require.Equal(t, tc.status, resp.StatusCode)

			var payload envelope
			decode(t, resp, &payload)
			require.False(t, payload.Success)
			require.Equal(t, tc.code, payload.Code)
			require.NotEmpty(t, payload.Message)
			require.Equal(t, payload.Message, payload.Error)
		})
	}
}

func TestErrorHandlerRendersEnvelope(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler(zerolog.Nop())})
	app.Get("/", func(c *fiber.Ctx) error {
		return appErrors.Clone(appErrors.ErrConflict, "already enrolled")
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload envelope
	decode(t, resp, &payload)
	require.Equal(t, "already enrolled", payload.Message)
	require.Equal(t, "already enrolled", payload.Error)
	require.Equal(t, "CONFLICT", payload.Code)

	resp = performRequest(t, app, http.MethodGet, "/missing")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleErrorLogsServerFailures(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("correlation_id", "corr-42")
		c.SetUserContext(logger.WithContext(c.UserContext()))
		return c.Next()
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return utils.HandleError(c, errors.New("disk full"))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return utils.HandleError(c, gorm.ErrRecordNotFound)
	})

	resp := performRequest(t, app, http.MethodGet, "/missing")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Empty(t, logs.String())

	resp = performRequest(t, app, http.MethodGet, "/boom")
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Contains(t, logs.String(), "disk full")
	require.Contains(t, logs.String(), "corr-42")
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
