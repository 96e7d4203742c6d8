package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// CourseHandler wires the course catalog and approval workflow routes.
type CourseHandler struct {
	service  service.CourseService
	notifier service.NotificationDispatcher
	logger   zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, notifier service.NotificationDispatcher, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints. The catalog and course detail are
// public; everything else requires a token.
func (h *CourseHandler) Register(router fiber.Router) {
	authenticated := middleware.AuthOptions{RequireUser: true}
	admin := middleware.AuthOptions{Role: policy.RoleAdmin}

	router.Get("", h.catalog)
	router.Get("/mine", middleware.WithAuth(h.listMine, middleware.AuthOptions{Role: policy.RoleInstructor}))
	router.Get("/:id", h.get)
	router.Post("", middleware.WithAuth(h.create, authenticated))
	router.Put("/:id", middleware.WithAuth(h.update, authenticated))
	router.Put("/:id/submit", middleware.WithAuth(h.submit, authenticated))
	router.Put("/:id/approve", middleware.WithAuth(h.approve, admin))
	router.Put("/:id/reject", middleware.WithAuth(h.reject, admin))
	router.Delete("/:id", middleware.WithAuth(h.archive, authenticated))
}

// RegisterAdmin attaches the admin course listing.
func (h *CourseHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.listAdmin)
}

func (h *CourseHandler) listRequest(c *fiber.Ctx) (dto.CourseListRequest, error) {
	page, pageSize, err := pagination(c)
	if err != nil {
		return dto.CourseListRequest{}, err
	}
	return dto.CourseListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Status:   c.Query("status"),
	}, nil
}

func (h *CourseHandler) catalog(c *fiber.Ctx) error {
	req, err := h.listRequest(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	courses, err := h.service.ListCatalog(requestContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) listMine(c *fiber.Ctx) error {
	req, err := h.listRequest(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	courses, err := h.service.ListMine(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) listAdmin(c *fiber.Ctx) error {
	req, err := h.listRequest(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	courses, err := h.service.ListAdmin(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	course, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var req dto.CourseCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	course, err := h.service.Create(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	var req dto.CourseUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	course, err := h.service.Update(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) submit(c *fiber.Ctx) error {
	course, err := h.service.Submit(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "course submitted for review", course)
}

func (h *CourseHandler) approve(c *fiber.Ctx) error {
	ctx := requestContext(c)
	result, err := h.service.Approve(ctx, middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	requestLogger(h.logger, c).Info().Str("course_id", result.Entity.ID).Msg("course approved")
	return utils.SendSuccess(c, "course approved", result.Entity)
}

func (h *CourseHandler) reject(c *fiber.Ctx) error {
	var req dto.CourseRejectRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return utils.HandleError(c, err)
		}
	}

	ctx := requestContext(c)
	result, err := h.service.Reject(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	requestLogger(h.logger, c).Info().Str("course_id", result.Entity.ID).Msg("course rejected")
	return utils.SendSuccess(c, "course rejected", result.Entity)
}

func (h *CourseHandler) archive(c *fiber.Ctx) error {
	course, err := h.service.Archive(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "course archived", course)
}
