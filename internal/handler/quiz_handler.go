package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// QuizHandler wires quiz authoring and attempt routes.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register attaches quiz endpoints to the router group.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/questions", h.addQuestion)
	router.Put("/:id/questions/:questionId", h.updateQuestion)
	router.Delete("/:id/questions/:questionId", h.deleteQuestion)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/attempts", h.attempts)
}

// RegisterCourse attaches the per-course listing to a group mounted at /courses/:id/quizzes.
func (h *QuizHandler) RegisterCourse(router fiber.Router) {
	router.Get("", h.listByCourse)
}

func (h *QuizHandler) listByCourse(c *fiber.Ctx) error {
	quizzes, err := h.service.ListByCourse(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *QuizHandler) create(c *fiber.Ctx) error {
	var req dto.QuizCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	quiz, err := h.service.Create(requestContext(c), middleware.ActorFromContext(c), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz created", quiz)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	quiz, err := h.service.Get(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) update(c *fiber.Ctx) error {
	var req dto.QuizUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	quiz, err := h.service.Update(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "quiz updated", quiz)
}

func (h *QuizHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(requestContext(c), middleware.ActorFromContext(c), c.Params("id")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "quiz deleted", fiber.Map{"id": c.Params("id")})
}

func (h *QuizHandler) addQuestion(c *fiber.Ctx) error {
	var req dto.QuestionCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	question, err := h.service.AddQuestion(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question added", question)
}

func (h *QuizHandler) updateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	question, err := h.service.UpdateQuestion(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), c.Params("questionId"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "question updated", question)
}

func (h *QuizHandler) deleteQuestion(c *fiber.Ctx) error {
	if err := h.service.DeleteQuestion(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), c.Params("questionId")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "question deleted", fiber.Map{"id": c.Params("questionId")})
}

func (h *QuizHandler) submit(c *fiber.Ctx) error {
	var req dto.QuizAttemptRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	attempt, err := h.service.SubmitAttempt(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Str("quiz_id", attempt.QuizID).
		Int("attempt", attempt.AttemptNumber).
		Msg("quiz attempt recorded")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz submitted", attempt)
}

func (h *QuizHandler) attempts(c *fiber.Ctx) error {
	attempts, err := h.service.ListAttempts(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "attempts retrieved", attempts)
}
