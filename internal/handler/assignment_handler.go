package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes and the student submit endpoint.
type AssignmentHandler struct {
	service     service.AssignmentService
	submissions service.SubmissionService
	notifier    service.NotificationDispatcher
	logger      zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, submissions service.SubmissionService, notifier service.NotificationDispatcher, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:     service,
		submissions: submissions,
		notifier:    notifier,
		logger:      logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/submissions", h.listSubmissions)
}

// RegisterCourse attaches the per-course listing to a group mounted at /courses/:id/assignments.
func (h *AssignmentHandler) RegisterCourse(router fiber.Router) {
	router.Get("", h.listByCourse)
}

func (h *AssignmentHandler) listByCourse(c *fiber.Ctx) error {
	assignments, err := h.service.ListByCourse(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	assignment, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var req dto.AssignmentCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.Create(ctx, middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", result.Entity)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	var req dto.AssignmentUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	assignment, err := h.service.Update(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), middleware.ActorFromContext(c), c.Params("id")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": c.Params("id")})
}

// submit accepts either a JSON body or a multipart form with an optional "file" part.
func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	var req dto.SubmissionCreateRequest

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		req.Content = c.FormValue("content")
		if header, err := c.FormFile("file"); err == nil {
			file, err := header.Open()
			if err != nil {
				return utils.SendError(c, fiber.StatusBadRequest, "unable to read uploaded file")
			}
			defer file.Close()
			req.File = &dto.SubmissionFile{Filename: header.Filename, Size: header.Size, Reader: file}
		}
	} else if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return utils.HandleError(c, err)
		}
	}

	submission, created, err := h.submissions.Submit(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}

	if created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission received", submission)
	}
	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *AssignmentHandler) listSubmissions(c *fiber.Ctx) error {
	submissions, err := h.submissions.ListByAssignment(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}
