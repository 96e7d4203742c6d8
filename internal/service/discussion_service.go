package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// DiscussionService exposes course discussion threads.
type DiscussionService interface {
	ListPosts(ctx context.Context, actor policy.Actor, courseID string, page, pageSize int) (dto.DiscussionPostListResponse, error)
	GetPost(ctx context.Context, actor policy.Actor, postID string) (dto.DiscussionPostResponse, error)
	CreatePost(ctx context.Context, actor policy.Actor, courseID string, req dto.DiscussionPostCreateRequest) (OperationResult[dto.DiscussionPostResponse], error)
	UpdatePost(ctx context.Context, actor policy.Actor, postID string, req dto.DiscussionPostUpdateRequest) (dto.DiscussionPostResponse, error)
	DeletePost(ctx context.Context, actor policy.Actor, postID string) error
	TogglePostLike(ctx context.Context, actor policy.Actor, postID string) (dto.LikeResponse, error)
	CreateComment(ctx context.Context, actor policy.Actor, postID string, req dto.DiscussionCommentCreateRequest) (OperationResult[dto.DiscussionCommentResponse], error)
	UpdateComment(ctx context.Context, actor policy.Actor, commentID string, req dto.DiscussionCommentUpdateRequest) (dto.DiscussionCommentResponse, error)
	DeleteComment(ctx context.Context, actor policy.Actor, commentID string) error
	ToggleCommentLike(ctx context.Context, actor policy.Actor, commentID string) (dto.LikeResponse, error)
}

type discussionService struct {
	repo           repository.DiscussionRepository
	gate           courseGate
	validator      *validator.Validate
	logger         zerolog.Logger
	tracer         trace.Tracer
	sanitizer      *bluemonday.Policy
	titleSanitizer *bluemonday.Policy
	mentionPattern *regexp.Regexp
}

// NewDiscussionService constructs a discussion service.
func NewDiscussionService(repo repository.DiscussionRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) DiscussionService {
	ugc := bluemonday.UGCPolicy()
	ugc.AllowElements("br")

	return &discussionService{
		repo:           repo,
		gate:           courseGate{courses: courses, enrollments: enrollments},
		validator:      validate,
		logger:         logger.With().Str("component", "discussion_service").Logger(),
		tracer:         otel.Tracer(tracerPrefix + "discussion"),
		sanitizer:      ugc,
		titleSanitizer: bluemonday.StrictPolicy(),
		mentionPattern: regexp.MustCompile(`@([a-zA-Z0-9_\-:]+)`),
	}
}

func (s *discussionService) ListPosts(ctx context.Context, actor policy.Actor, courseID string, page, pageSize int) (dto.DiscussionPostListResponse, error) {
	if _, _, err := s.gate.participate(ctx, actor, courseID); err != nil {
		return dto.DiscussionPostListResponse{}, err
	}

	page, pageSize = normalizePage(page, pageSize)
	posts, total, err := s.repo.ListPosts(ctx, courseID, page, pageSize)
	if err != nil {
		return dto.DiscussionPostListResponse{}, err
	}

	return dto.DiscussionPostListResponse{
		Items:      dto.NewDiscussionPostResponseSlice(posts),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *discussionService) GetPost(ctx context.Context, actor policy.Actor, postID string) (dto.DiscussionPostResponse, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return dto.DiscussionPostResponse{}, err
	}
	if _, _, err := s.gate.participate(ctx, actor, post.CourseID); err != nil {
		return dto.DiscussionPostResponse{}, err
	}

	comments, err := s.repo.ListComments(ctx, post.ID)
	if err != nil {
		return dto.DiscussionPostResponse{}, err
	}

	response := dto.NewDiscussionPostResponse(post)
	response.Comments = dto.NewDiscussionCommentResponseSlice(comments)
	return response, nil
}

func (s *discussionService) CreatePost(ctx context.Context, actor policy.Actor, courseID string, req dto.DiscussionPostCreateRequest) (OperationResult[dto.DiscussionPostResponse], error) {
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.DiscussionPostResponse]{}, err
	}
	if _, _, err := s.gate.participate(ctx, actor, courseID); err != nil {
		return OperationResult[dto.DiscussionPostResponse]{}, err
	}

	title, content, err := s.clean(req.Title, req.Content)
	if err != nil {
		return OperationResult[dto.DiscussionPostResponse]{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "discussion.create", trace.WithAttributes(
		attribute.String("discussion.author_id", actor.ID),
		attribute.String("discussion.course_id", courseID),
	))
	defer span.End()

	post := models.DiscussionPost{
		CourseID: courseID,
		AuthorID: actor.ID,
		Title:    title,
		Content:  content,
		Likes:    []string{},
	}
	if err := s.repo.CreatePost(spanCtx, &post); err != nil {
		span.RecordError(err)
		return OperationResult[dto.DiscussionPostResponse]{}, err
	}

	s.logger.Info().Str("post_id", post.ID).Str("author_id", actor.ID).Msg("discussion post created")

	targets := newRecipients(actor.ID)
	s.addMentions(targets, post.Content, post.Title, post.ID)
	return result(dto.NewDiscussionPostResponse(post), targets.events()...), nil
}

func (s *discussionService) UpdatePost(ctx context.Context, actor policy.Actor, postID string, req dto.DiscussionPostUpdateRequest) (dto.DiscussionPostResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DiscussionPostResponse{}, err
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return dto.DiscussionPostResponse{}, err
	}
	moderator, err := s.authorizeMutation(ctx, actor, post.CourseID, post.AuthorID)
	if err != nil {
		return dto.DiscussionPostResponse{}, err
	}

	if req.Title != nil {
		title, _, err := s.clean(*req.Title, "-")
		if err != nil {
			return dto.DiscussionPostResponse{}, err
		}
		post.Title = title
	}
	if req.Content != nil {
		_, content, err := s.clean("-", *req.Content)
		if err != nil {
			return dto.DiscussionPostResponse{}, err
		}
		post.Content = content
	}
	if req.IsPinned != nil {
		if !moderator {
			return dto.DiscussionPostResponse{}, forbidden("only course managers can pin posts")
		}
		post.IsPinned = *req.IsPinned
	}

	if err := s.repo.UpdatePost(ctx, &post); err != nil {
		return dto.DiscussionPostResponse{}, err
	}
	return dto.NewDiscussionPostResponse(post), nil
}

func (s *discussionService) DeletePost(ctx context.Context, actor policy.Actor, postID string) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if _, err := s.authorizeMutation(ctx, actor, post.CourseID, post.AuthorID); err != nil {
		return err
	}
	return lookup(s.repo.DeletePost(ctx, post.ID), "post not found")
}

func (s *discussionService) TogglePostLike(ctx context.Context, actor policy.Actor, postID string) (dto.LikeResponse, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return dto.LikeResponse{}, err
	}
	if _, _, err := s.gate.participate(ctx, actor, post.CourseID); err != nil {
		return dto.LikeResponse{}, err
	}

	likes, liked := models.ToggleLike(post.Likes, actor.ID)
	post.Likes = likes
	if err := s.repo.UpdatePost(ctx, &post); err != nil {
		return dto.LikeResponse{}, err
	}
	return dto.LikeResponse{Liked: liked, LikeCount: len(likes)}, nil
}

// CreateComment notifies the post author, the parent comment author for
// replies, and any mentioned users. The actor is never notified.
func (s *discussionService) CreateComment(ctx context.Context, actor policy.Actor, postID string, req dto.DiscussionCommentCreateRequest) (OperationResult[dto.DiscussionCommentResponse], error) {
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.DiscussionCommentResponse]{}, err
	}
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return OperationResult[dto.DiscussionCommentResponse]{}, err
	}
	if _, _, err := s.gate.participate(ctx, actor, post.CourseID); err != nil {
		return OperationResult[dto.DiscussionCommentResponse]{}, err
	}

	_, content, err := s.clean("-", req.Content)
	if err != nil {
		return OperationResult[dto.DiscussionCommentResponse]{}, err
	}

	var parent *models.DiscussionComment
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		found, err := s.repo.GetComment(ctx, strings.TrimSpace(*req.ParentID))
		if err != nil {
			return OperationResult[dto.DiscussionCommentResponse]{}, lookup(err, "parent comment not found")
		}
		if found.PostID != post.ID {
			return OperationResult[dto.DiscussionCommentResponse]{}, invalid("parent comment belongs to another post")
		}
		parent = &found
	}

	comment := models.DiscussionComment{
		PostID:   post.ID,
		CourseID: post.CourseID,
		AuthorID: actor.ID,
		Content:  content,
		Likes:    []string{},
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if err := s.repo.CreateComment(ctx, &comment); err != nil {
		return OperationResult[dto.DiscussionCommentResponse]{}, err
	}

	targets := newRecipients(actor.ID)
	if parent != nil {
		targets.add(parent.AuthorID, dto.NotificationRequest{
			Type:        models.NotificationReply,
			Title:       "New reply",
			Message:     fmt.Sprintf("Someone replied to your comment in \"%s\".", post.Title),
			RelatedType: "discussion_post",
			RelatedID:   post.ID,
		})
	}
	targets.add(post.AuthorID, dto.NotificationRequest{
		Type:        models.NotificationComment,
		Title:       "New comment",
		Message:     fmt.Sprintf("Your post \"%s\" has a new comment.", post.Title),
		RelatedType: "discussion_post",
		RelatedID:   post.ID,
	})
	s.addMentions(targets, comment.Content, post.Title, post.ID)

	return result(dto.NewDiscussionCommentResponse(comment), targets.events()...), nil
}

func (s *discussionService) UpdateComment(ctx context.Context, actor policy.Actor, commentID string, req dto.DiscussionCommentUpdateRequest) (dto.DiscussionCommentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DiscussionCommentResponse{}, err
	}
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return dto.DiscussionCommentResponse{}, err
	}
	if _, err := s.authorizeMutation(ctx, actor, comment.CourseID, comment.AuthorID); err != nil {
		return dto.DiscussionCommentResponse{}, err
	}

	_, content, err := s.clean("-", req.Content)
	if err != nil {
		return dto.DiscussionCommentResponse{}, err
	}
	comment.Content = content

	if err := s.repo.UpdateComment(ctx, &comment); err != nil {
		return dto.DiscussionCommentResponse{}, err
	}
	return dto.NewDiscussionCommentResponse(comment), nil
}

func (s *discussionService) DeleteComment(ctx context.Context, actor policy.Actor, commentID string) error {
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if _, err := s.authorizeMutation(ctx, actor, comment.CourseID, comment.AuthorID); err != nil {
		return err
	}
	return lookup(s.repo.DeleteComment(ctx, comment.ID), "comment not found")
}

func (s *discussionService) ToggleCommentLike(ctx context.Context, actor policy.Actor, commentID string) (dto.LikeResponse, error) {
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return dto.LikeResponse{}, err
	}
	if _, _, err := s.gate.participate(ctx, actor, comment.CourseID); err != nil {
		return dto.LikeResponse{}, err
	}

	likes, liked := models.ToggleLike(comment.Likes, actor.ID)
	comment.Likes = likes
	if err := s.repo.UpdateComment(ctx, &comment); err != nil {
		return dto.LikeResponse{}, err
	}
	return dto.LikeResponse{Liked: liked, LikeCount: len(likes)}, nil
}

// authorizeMutation admits the author and course managers. It reports whether
// the actor is acting as a manager.
func (s *discussionService) authorizeMutation(ctx context.Context, actor policy.Actor, courseID, authorID string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	course, err := s.gate.load(ctx, courseID)
	if err != nil {
		return false, err
	}
	if policy.CanManage(actor, course) {
		return true, nil
	}
	if actor.ID == authorID {
		return false, nil
	}
	return false, forbidden("only the author or a course manager can change this")
}

func (s *discussionService) clean(title, content string) (string, string, error) {
	cleanTitle := strings.TrimSpace(s.titleSanitizer.Sanitize(title))
	if cleanTitle == "" {
		return "", "", invalid("title empty after sanitization")
	}
	cleanContent := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if cleanContent == "" {
		return "", "", invalid("content empty after sanitization")
	}
	return cleanTitle, cleanContent, nil
}

func (s *discussionService) addMentions(targets *recipients, content, postTitle, postID string) {
	for _, mention := range s.extractMentions(content) {
		targets.add(mention, dto.NotificationRequest{
			Type:        models.NotificationMention,
			Title:       "You were mentioned",
			Message:     fmt.Sprintf("You were mentioned in the discussion \"%s\".", postTitle),
			RelatedType: "discussion_post",
			RelatedID:   postID,
		})
	}
}

func (s *discussionService) extractMentions(content string) []string {
	matches := s.mentionPattern.FindAllStringSubmatch(content, -1)
	mentions := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		if mention := strings.TrimSpace(match[1]); mention != "" {
			mentions = append(mentions, mention)
		}
	}
	return mentions
}

func (s *discussionService) loadPost(ctx context.Context, id string) (models.DiscussionPost, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return models.DiscussionPost{}, lookup(err, "post not found")
	}
	return post, nil
}

func (s *discussionService) loadComment(ctx context.Context, id string) (models.DiscussionComment, error) {
	comment, err := s.repo.GetComment(ctx, id)
	if err != nil {
		return models.DiscussionComment{}, lookup(err, "comment not found")
	}
	return comment, nil
}

// recipients keeps one event per user, first added wins, and skips the actor.
type recipients struct {
	actorID string
	order   []string
	byUser  map[string]dto.NotificationRequest
}

func newRecipients(actorID string) *recipients {
	return &recipients{actorID: actorID, byUser: map[string]dto.NotificationRequest{}}
}

func (r *recipients) add(userID string, event dto.NotificationRequest) {
	if userID == "" || userID == r.actorID {
		return
	}
	if _, exists := r.byUser[userID]; exists {
		return
	}
	event.UserID = userID
	r.byUser[userID] = event
	r.order = append(r.order, userID)
}

func (r *recipients) events() []dto.NotificationRequest {
	out := make([]dto.NotificationRequest, 0, len(r.order))
	for _, userID := range r.order {
		out = append(out, r.byUser[userID])
	}
	return out
}
