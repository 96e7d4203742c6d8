package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// SubmissionHandler manages grading and submission lookups.
type SubmissionHandler struct {
	service  service.SubmissionService
	notifier service.NotificationDispatcher
	logger   zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, notifier service.NotificationDispatcher, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.listMine)
	router.Get("/:id", h.get)
	router.Put("/:id", h.grade)
	router.Put("/:id/return", h.returnSubmission)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	submissions, err := h.service.ListMine(requestContext(c), middleware.ActorFromContext(c))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	var req dto.GradeSubmissionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.Grade(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccess(c, "submission graded", result.Entity)
}

func (h *SubmissionHandler) returnSubmission(c *fiber.Ctx) error {
	var req dto.ReturnSubmissionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.Return(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccess(c, "submission returned", result.Entity)
}
