package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
)

// DiscussionHandler exposes course discussion threads.
type DiscussionHandler struct {
	service  service.DiscussionService
	notifier service.NotificationDispatcher
	logger   zerolog.Logger
}

// NewDiscussionHandler constructs a discussion handler.
func NewDiscussionHandler(service service.DiscussionService, notifier service.NotificationDispatcher, logger zerolog.Logger) *DiscussionHandler {
	return &DiscussionHandler{
		service:  service,
		notifier: notifier,
		logger:   logger.With().Str("component", "discussion_handler").Logger(),
	}
}

// RegisterCourse attaches thread listing and creation to a group mounted at /courses/:id/discussions.
func (h *DiscussionHandler) RegisterCourse(router fiber.Router) {
	router.Get("", h.listPosts)
	router.Post("", h.createPost)
}

// Register binds post and comment routes.
func (h *DiscussionHandler) Register(router fiber.Router) {
	router.Put("/comments/:commentId", h.updateComment)
	router.Delete("/comments/:commentId", h.deleteComment)
	router.Post("/comments/:commentId/like", h.likeComment)
	router.Get("/:id", h.getPost)
	router.Put("/:id", h.updatePost)
	router.Delete("/:id", h.deletePost)
	router.Post("/:id/like", h.likePost)
	router.Post("/:id/comments", h.createComment)
}

func (h *DiscussionHandler) listPosts(c *fiber.Ctx) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return utils.HandleError(c, err)
	}

	posts, err := h.service.ListPosts(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), page, pageSize)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "discussions retrieved", posts)
}

func (h *DiscussionHandler) createPost(c *fiber.Ctx) error {
	var req dto.DiscussionPostCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.CreatePost(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "discussion created", result.Entity)
}

func (h *DiscussionHandler) getPost(c *fiber.Ctx) error {
	post, err := h.service.GetPost(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "discussion retrieved", post)
}

func (h *DiscussionHandler) updatePost(c *fiber.Ctx) error {
	var req dto.DiscussionPostUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	post, err := h.service.UpdatePost(requestContext(c), middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "discussion updated", post)
}

func (h *DiscussionHandler) deletePost(c *fiber.Ctx) error {
	if err := h.service.DeletePost(requestContext(c), middleware.ActorFromContext(c), c.Params("id")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "discussion deleted", fiber.Map{"id": c.Params("id")})
}

func (h *DiscussionHandler) likePost(c *fiber.Ctx) error {
	like, err := h.service.TogglePostLike(requestContext(c), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "like toggled", like)
}

func (h *DiscussionHandler) createComment(c *fiber.Ctx) error {
	var req dto.DiscussionCommentCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	ctx := requestContext(c)
	result, err := h.service.CreateComment(ctx, middleware.ActorFromContext(c), c.Params("id"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	dispatch(ctx, h.notifier, result.Events)

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", result.Entity)
}

func (h *DiscussionHandler) updateComment(c *fiber.Ctx) error {
	var req dto.DiscussionCommentUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.HandleError(c, err)
	}

	comment, err := h.service.UpdateComment(requestContext(c), middleware.ActorFromContext(c), c.Params("commentId"), req)
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "comment updated", comment)
}

func (h *DiscussionHandler) deleteComment(c *fiber.Ctx) error {
	if err := h.service.DeleteComment(requestContext(c), middleware.ActorFromContext(c), c.Params("commentId")); err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "comment deleted", fiber.Map{"id": c.Params("commentId")})
}

func (h *DiscussionHandler) likeComment(c *fiber.Ctx) error {
	like, err := h.service.ToggleCommentLike(requestContext(c), middleware.ActorFromContext(c), c.Params("commentId"))
	if err != nil {
		return utils.HandleError(c, err)
	}
	return utils.SendSuccess(c, "like toggled", like)
}
