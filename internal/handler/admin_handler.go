package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// AdminHandler exposes the platform overview and activity log.
type AdminHandler struct {
	overview service.AdminOverviewService
	activity service.ActivityService
	logger   zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(overview service.AdminOverviewService, activity service.ActivityService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		overview: overview,
		activity: activity,
		logger:   logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin reporting routes to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/overview", h.getOverview)
	router.Get("/activities", h.listActivities)
}

func (h *AdminHandler) getOverview(c *fiber.Ctx) error {
	overview, err := h.overview.GetOverview(requestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "overview retrieved", overview)
}

func (h *AdminHandler) listActivities(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	req := dto.AdminActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Since:      c.Query("since"),
	}

	response, err := h.activity.List(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "activity logs", response)
}
