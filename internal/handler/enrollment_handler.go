package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// EnrollmentHandler wires enrollment and progress routes.
type EnrollmentHandler struct {
	service  service.EnrollmentService
	notifier service.NotificationDispatcher
	logger   zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, notifier service.NotificationDispatcher, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("", h.enroll)
	router.Get("", h.listMine)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.unenroll)
	router.Put("/:id/lessons/:lessonId/complete", h.completeLesson)
	router.Get("/:id/certificate", h.certificate)
}

// RegisterCourse attaches the roster listing to a group mounted at /courses/:id/enrollments.
func (h *EnrollmentHandler) RegisterCourse(router fiber.Router) {
	router.Get("", h.listByCourse)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	var req dto.EnrollmentCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.Enroll(ctx, middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", result.Entity)
}

func (h *EnrollmentHandler) listMine(c *fiber.Ctx) error {
	enrollments, err := h.service.ListMine(requestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) listByCourse(c *fiber.Ctx) error {
	enrollments, err := h.service.ListByCourse(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *EnrollmentHandler) get(c *fiber.Ctx) error {
	enrollment, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "enrollment retrieved", enrollment)
}

func (h *EnrollmentHandler) unenroll(c *fiber.Ctx) error {
	if err := h.service.Unenroll(requestContext(c), middleware.ActorFromContext(c), c.Params("id")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "unenrolled", fiber.Map{"id": c.Params("id")})
}

func (h *EnrollmentHandler) completeLesson(c *fiber.Ctx) error {
	ctx := requestContext(c)
	result, err := h.service.MarkLessonComplete(ctx, middleware.ActorFromContext(c), c.Params("id"), c.Params("lessonId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccess(c, "lesson completed", result.Entity)
}

func (h *EnrollmentHandler) certificate(c *fiber.Ctx) error {
	cert, err := h.service.Certificate(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", cert.Filename))
	return c.Send(cert.Content)
}
