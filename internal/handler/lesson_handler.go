package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// LessonHandler exposes lesson management nested under a course.
type LessonHandler struct {
	service service.LessonService
	logger  zerolog.Logger
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service service.LessonService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register attaches lesson routes to a group mounted at /courses/:id/lessons.
func (h *LessonHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/reorder", h.reorder)
	router.Get("/:lessonId", h.get)
	router.Put("/:lessonId", h.update)
	router.Delete("/:lessonId", h.delete)
}

func (h *LessonHandler) list(c *fiber.Ctx) error {
	lessons, err := h.service.List(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	lesson, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), c.Params("lessonId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	var req dto.LessonCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	lesson, err := h.service.Create(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *LessonHandler) update(c *fiber.Ctx) error {
	var req dto.LessonUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	lesson, err := h.service.Update(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), c.Params("lessonId"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "lesson updated", lesson)
}

func (h *LessonHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), c.Params("lessonId")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": c.Params("lessonId")})
}

func (h *LessonHandler) reorder(c *fiber.Ctx) error {
	var req dto.LessonReorderRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	lessons, err := h.service.Reorder(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "lessons reordered", lessons)
}
