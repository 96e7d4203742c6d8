package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// AdminUserHandler exposes account administration for admins.
type AdminUserHandler struct {
	service  service.UserService
	notifier service.NotificationDispatcher
	logger   zerolog.Logger
}

// NewAdminUserHandler constructs the handler.
func NewAdminUserHandler(service service.UserService, notifier service.NotificationDispatcher, logger zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.With().Str("component", "admin_user_handler").Logger(),
	}
}

// Register attaches user administration routes to the router group.
func (h *AdminUserHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id/role", h.updateRole)
	router.Put("/:id/status", h.updateStatus)
}

func (h *AdminUserHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	req := dto.UserListRequest{
		Page:     page,
		PageSize: pageSize,
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	}

	users, err := h.service.List(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *AdminUserHandler) create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	user, err := h.service.Create(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *AdminUserHandler) updateRole(c *fiber.Ctx) error {
	var req dto.UserRoleUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.UpdateRole(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccess(c, "user role updated", result.Entity)
}

func (h *AdminUserHandler) updateStatus(c *fiber.Ctx) error {
	var req dto.UserStatusUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.UpdateStatus(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	requestLogger(h.logger, c).Info().
		Str("user_id", result.Entity.ID).
		Str("status", result.Entity.Status).
		Msg("account status changed")
	return utils.SendSuccess(c, "user status updated", result.Entity)
}
