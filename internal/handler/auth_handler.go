package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds the auth routes. The limiter guards login only.
func (h *AuthHandler) Register(router fiber.Router, loginLimiter fiber.Handler) {
	router.Post("/register", h.register)
	if loginLimiter != nil {
		router.Post("/login", loginLimiter, h.login)
	} else {
		router.Post("/login", h.login)
	}
	router.Get("/me", middleware.WithAuth(h.me, middleware.AuthOptions{RequireUser: true}))
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	response, err := h.service.Register(requestContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}

	requestLogger(h.logger, c).Info().Str("user_id", response.User.ID).Msg("account registered")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account registered", response)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	response, err := h.service.Login(requestContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	profile, err := h.service.Me(requestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}
