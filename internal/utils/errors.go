package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// NormalizeError maps validator, gorm and fiber errors onto typed application errors.
func NormalizeError(err error) (*appErrors.Error, interface{}) {
	if err == nil {
		return nil, nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))
		names := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			name := strings.ToLower(fe.Field())
			fields = append(fields, FieldError{Field: name, Rule: fe.Tag()})
			names = append(names, name)
		}
		message := fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
		return appErrors.Clone(appErrors.ErrValidation, message), fields
	}

	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErrors.ErrNotFound, nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return appErrors.ErrConflict, nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return appErrors.New(codeForStatus(fiberErr.Code), fiberErr.Code, fiberErr.Message), nil
	}

	return appErrors.FromError(err), nil
}

// HandleError writes the error envelope for err with the mapped HTTP status.
// Server-side failures are logged through the request logger so the cause of
// a 5xx is not lost when handlers render the error themselves.
func HandleError(c *fiber.Ctx, err error) error {
	appErr, details := NormalizeError(err)
	if appErr == nil {
		return nil
	}
	if appErr.Status >= fiber.StatusInternalServerError {
		zerolog.Ctx(c.UserContext()).Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("correlation_id", c.Locals("correlation_id")).
			Int("status", appErr.Status).
			Msg("request failed")
	}
	return SendErrorWithCode(c, appErr.Status, appErr.Code, appErr.Message, details)
}

// ErrorHandler returns a fiber error handler that renders every unhandled
// error through HandleError, falling back to logger when the request carries
// no logger of its own.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	log := logger.With().Str("component", "error_handler").Logger()
	return func(c *fiber.Ctx, err error) error {
		if zerolog.Ctx(c.UserContext()).GetLevel() == zerolog.Disabled {
			c.SetUserContext(log.WithContext(c.UserContext()))
		}
		return HandleError(c, err)
	}
}
