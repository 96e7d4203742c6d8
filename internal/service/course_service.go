package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/observability"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

const catalogVersionKey = "courses:catalog:version"

// CourseService drives the course review workflow and the catalog listings.
type CourseService interface {
	Create(ctx context.Context, actor policy.Actor, req dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor policy.Actor, id string, req dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Submit(ctx context.Context, actor policy.Actor, id string) (dto.CourseResponse, error)
	Approve(ctx context.Context, actor policy.Actor, id string) (OperationResult[dto.CourseResponse], error)
	Reject(ctx context.Context, actor policy.Actor, id string, req dto.CourseRejectRequest) (OperationResult[dto.CourseResponse], error)
	Archive(ctx context.Context, actor policy.Actor, id string) (dto.CourseResponse, error)
	Get(ctx context.Context, actor policy.Actor, id string) (dto.CourseResponse, error)
	ListCatalog(ctx context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error)
	ListMine(ctx context.Context, actor policy.Actor, req dto.CourseListRequest) (dto.CourseListResponse, error)
	ListAdmin(ctx context.Context, actor policy.Actor, req dto.CourseListRequest) (dto.CourseListResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	activity    ActivityRecorder
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCourseService constructs the course service. A nil redis client disables
// catalog caching.
func NewCourseService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, activity ActivityRecorder, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) CourseService {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		activity:    activity,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "course_service").Logger(),
		tracer:      otel.Tracer(tracerPrefix + "course"),
		now:         time.Now,
	}
}

func (s *courseService) Create(ctx context.Context, actor policy.Actor, req dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.CourseResponse{}, err
	}
	if !actor.IsInstructor() {
		return dto.CourseResponse{}, forbidden("only instructors can create courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		InstructorID: actor.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.TrimSpace(req.Category),
		Level:        strings.TrimSpace(req.Level),
		Price:        req.Price,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		Status:       models.CourseStatusDraft,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Str("course_id", course.ID).Str("instructor_id", actor.ID).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, actor policy.Actor, id string, req dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.manage(ctx, actor, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if course.Status == models.CourseStatusArchived {
		return dto.CourseResponse{}, appErrors.Clone(appErrors.ErrInvalidTransition, "archived courses cannot be edited")
	}

	if v := trimmed(req.Title); v != nil {
		course.Title = *v
	}
	if v := trimmed(req.Description); v != nil {
		course.Description = *v
	}
	if v := trimmed(req.Category); v != nil {
		course.Category = *v
	}
	if v := trimmed(req.Level); v != nil {
		course.Level = *v
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if v := trimmed(req.ThumbnailURL); v != nil {
		course.ThumbnailURL = *v
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	s.invalidateCatalog(ctx)

	return dto.NewCourseResponse(course), nil
}

// Submit moves a draft or rejected course into the review queue.
func (s *courseService) Submit(ctx context.Context, actor policy.Actor, id string) (dto.CourseResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.CourseResponse{}, err
	}
	course, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if course.OwnerID() != actor.ID {
		return dto.CourseResponse{}, forbidden("only the course owner can submit it for review")
	}
	if !course.IsEditable() {
		return dto.CourseResponse{}, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("course in status %s cannot be submitted", course.Status))
	}

	submittedAt := s.now().UTC()
	course.Status = models.CourseStatusPending
	course.SubmittedAt = &submittedAt
	course.RejectionReason = ""

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	s.invalidateCatalog(ctx)

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Approve(ctx context.Context, actor policy.Actor, id string) (OperationResult[dto.CourseResponse], error) {
	if !actor.IsAdmin() {
		return OperationResult[dto.CourseResponse]{}, forbidden("admin role required")
	}

	ctx, span := s.tracer.Start(ctx, "course.approve", trace.WithAttributes(attribute.String("course.id", id)))
	defer span.End()

	course, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return OperationResult[dto.CourseResponse]{}, err
	}
	if course.Status == models.CourseStatusApproved {
		return result(dto.NewCourseResponse(course)), nil
	}
	if course.Status == models.CourseStatusArchived {
		return OperationResult[dto.CourseResponse]{}, appErrors.Clone(appErrors.ErrInvalidTransition, "archived courses cannot be approved")
	}

	approvedAt := s.now().UTC()
	course.Status = models.CourseStatusApproved
	course.IsApproved = true
	course.ApprovedAt = &approvedAt
	course.RejectionReason = ""

	if err := s.courses.Update(ctx, &course); err != nil {
		span.RecordError(err)
		return OperationResult[dto.CourseResponse]{}, err
	}
	s.invalidateCatalog(ctx)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.approved",
		EntityType: "course",
		EntityID:   course.ID,
		Metadata:   map[string]interface{}{"instructor_id": course.InstructorID},
	})

	event := dto.NotificationRequest{
		UserID:      course.InstructorID,
		Type:        models.NotificationCourseApproved,
		Title:       "Course approved",
		Message:     fmt.Sprintf("Your course \"%s\" has been approved and is now live.", course.Title),
		RelatedType: "course",
		RelatedID:   course.ID,
	}
	return result(dto.NewCourseResponse(course), event), nil
}

func (s *courseService) Reject(ctx context.Context, actor policy.Actor, id string, req dto.CourseRejectRequest) (OperationResult[dto.CourseResponse], error) {
	if !actor.IsAdmin() {
		return OperationResult[dto.CourseResponse]{}, forbidden("admin role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.CourseResponse]{}, err
	}

	course, err := s.load(ctx, id)
	if err != nil {
		return OperationResult[dto.CourseResponse]{}, err
	}
	if course.Status == models.CourseStatusArchived {
		return OperationResult[dto.CourseResponse]{}, appErrors.Clone(appErrors.ErrInvalidTransition, "archived courses cannot be rejected")
	}

	reason := strings.TrimSpace(req.Reason)
	if err := s.validator.Var(reason, "omitempty,min=3"); err != nil {
		return OperationResult[dto.CourseResponse]{}, invalid("reason must be at least 3 characters")
	}
	course.Status = models.CourseStatusRejected
	course.IsApproved = false
	course.ApprovedAt = nil
	course.RejectionReason = reason

	if err := s.courses.Update(ctx, &course); err != nil {
		return OperationResult[dto.CourseResponse]{}, err
	}
	s.invalidateCatalog(ctx)

	metadata := map[string]interface{}{}
	message := fmt.Sprintf("Your course \"%s\" was not approved.", course.Title)
	if reason != "" {
		metadata["reason"] = reason
		message += " Reason: " + reason
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.rejected",
		EntityType: "course",
		EntityID:   course.ID,
		Metadata:   metadata,
	})

	event := dto.NotificationRequest{
		UserID:      course.InstructorID,
		Type:        models.NotificationCourseRejected,
		Title:       "Course needs changes",
		Message:     message,
		RelatedType: "course",
		RelatedID:   course.ID,
	}
	return result(dto.NewCourseResponse(course), event), nil
}

func (s *courseService) Archive(ctx context.Context, actor policy.Actor, id string) (dto.CourseResponse, error) {
	course, err := s.manage(ctx, actor, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if course.Status == models.CourseStatusArchived {
		return dto.NewCourseResponse(course), nil
	}

	course.Status = models.CourseStatusArchived
	course.IsApproved = false
	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}
	s.invalidateCatalog(ctx)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.archived",
		EntityType: "course",
		EntityID:   course.ID,
	})

	return dto.NewCourseResponse(course), nil
}

// Get returns approved courses to anyone; other states only to managers and
// enrolled users.
func (s *courseService) Get(ctx context.Context, actor policy.Actor, id string) (dto.CourseResponse, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if course.IsPublic() || policy.CanManage(actor, course) {
		return dto.NewCourseResponse(course), nil
	}
	if actor.IsAuthenticated() && s.enrollments != nil {
		if _, err := s.enrollments.GetByUserAndCourse(ctx, actor.ID, course.ID); err == nil {
			return dto.NewCourseResponse(course), nil
		}
	}
	return dto.CourseResponse{}, notFound("course not found")
}

func (s *courseService) ListCatalog(ctx context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize)
	req.Status = models.CourseStatusApproved
	req.Search = strings.TrimSpace(req.Search)
	req.Category = strings.TrimSpace(req.Category)
	req.Level = strings.TrimSpace(req.Level)

	cacheKey := s.catalogKey(ctx, req)
	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CourseListResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.CatalogCache().WithLabelValues("hit").Inc()
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read course catalog cache")
		}
		observability.CatalogCache().WithLabelValues("miss").Inc()
	}

	response, err := s.list(ctx, repository.CourseFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   models.CourseStatusApproved,
		Search:   req.Search,
		Category: req.Category,
		Level:    req.Level,
	})
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store course catalog cache")
			}
		}
	}

	return response, nil
}

func (s *courseService) ListMine(ctx context.Context, actor policy.Actor, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.CourseListResponse{}, err
	}
	if !actor.IsInstructor() && !actor.IsAdmin() {
		return dto.CourseListResponse{}, forbidden("instructor role required")
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	return s.list(ctx, repository.CourseFilter{
		Page:         page,
		PageSize:     pageSize,
		Status:       strings.TrimSpace(req.Status),
		InstructorID: actor.ID,
		Search:       strings.TrimSpace(req.Search),
		Category:     strings.TrimSpace(req.Category),
		Level:        strings.TrimSpace(req.Level),
	})
}

func (s *courseService) ListAdmin(ctx context.Context, actor policy.Actor, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	if !actor.IsAdmin() {
		return dto.CourseListResponse{}, forbidden("admin role required")
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	return s.list(ctx, repository.CourseFilter{
		Page:            page,
		PageSize:        pageSize,
		Status:          strings.TrimSpace(req.Status),
		Search:          strings.TrimSpace(req.Search),
		Category:        strings.TrimSpace(req.Category),
		Level:           strings.TrimSpace(req.Level),
		IncludeArchived: true,
	})
}

func (s *courseService) list(ctx context.Context, filter repository.CourseFilter) (dto.CourseListResponse, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return dto.CourseListResponse{}, err
	}
	return dto.CourseListResponse{
		Items:      dto.NewCourseResponseSlice(courses),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *courseService) load(ctx context.Context, id string) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return models.Course{}, lookup(err, "course not found")
	}
	return course, nil
}

func (s *courseService) manage(ctx context.Context, actor policy.Actor, id string) (models.Course, error) {
	if err := requireActor(actor); err != nil {
		return models.Course{}, err
	}
	course, err := s.load(ctx, id)
	if err != nil {
		return models.Course{}, err
	}
	if !policy.CanManage(actor, course) {
		return models.Course{}, forbidden("you do not manage this course")
	}
	return course, nil
}

// catalogKey embeds the current catalog version so a single INCR invalidates
// every cached page.
func (s *courseService) catalogKey(ctx context.Context, req dto.CourseListRequest) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, catalogVersionKey).Int64()
	if err != nil && err != redis.Nil {
		s.logger.Warn().Err(err).Msg("failed to read course catalog version")
		return ""
	}
	return fmt.Sprintf("courses:catalog:v%d:p%d:s%d:q=%s:c=%s:l=%s",
		version, req.Page, req.PageSize,
		strings.ToLower(req.Search), strings.ToLower(req.Category), strings.ToLower(req.Level))
}

func (s *courseService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, catalogVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to bump course catalog version")
	}
}
