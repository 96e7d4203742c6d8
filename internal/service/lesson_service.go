package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// LessonService manages the ordered lessons of a course.
type LessonService interface {
	List(ctx context.Context, actor policy.Actor, courseID string) ([]dto.LessonResponse, error)
	Get(ctx context.Context, actor policy.Actor, courseID, lessonID string) (dto.LessonResponse, error)
	Create(ctx context.Context, actor policy.Actor, courseID string, req dto.LessonCreateRequest) (dto.LessonResponse, error)
	Update(ctx context.Context, actor policy.Actor, courseID, lessonID string, req dto.LessonUpdateRequest) (dto.LessonResponse, error)
	Delete(ctx context.Context, actor policy.Actor, courseID, lessonID string) error
	Reorder(ctx context.Context, actor policy.Actor, courseID string, req dto.LessonReorderRequest) ([]dto.LessonResponse, error)
}

type lessonService struct {
	lessons   repository.LessonRepository
	gate      courseGate
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLessonService constructs the lesson service.
func NewLessonService(lessons repository.LessonRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) LessonService {
	return &lessonService{
		lessons:   lessons,
		gate:      courseGate{courses: courses, enrollments: enrollments},
		validator: validate,
		logger:    logger.With().Str("component", "lesson_service").Logger(),
	}
}

// List is open to everyone for approved courses and otherwise limited to
// managers and enrolled users.
func (s *lessonService) List(ctx context.Context, actor policy.Actor, courseID string) ([]dto.LessonResponse, error) {
	if err := s.canView(ctx, actor, courseID); err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) Get(ctx context.Context, actor policy.Actor, courseID, lessonID string) (dto.LessonResponse, error) {
	if err := s.canView(ctx, actor, courseID); err != nil {
		return dto.LessonResponse{}, err
	}
	lesson, err := s.lessonInCourse(ctx, courseID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}
	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Create(ctx context.Context, actor policy.Actor, courseID string, req dto.LessonCreateRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.gate.manage(ctx, actor, courseID); err != nil {
		return dto.LessonResponse{}, err
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	} else {
		next, err := s.lessons.NextOrder(ctx, courseID)
		if err != nil {
			return dto.LessonResponse{}, err
		}
		order = next
	}

	lesson := models.Lesson{
		CourseID:  courseID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		VideoURL:  strings.TrimSpace(req.VideoURL),
		Order:     order,
		Duration:  req.Duration,
		IsPreview: req.IsPreview,
	}
	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Update(ctx context.Context, actor policy.Actor, courseID, lessonID string, req dto.LessonUpdateRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.gate.manage(ctx, actor, courseID); err != nil {
		return dto.LessonResponse{}, err
	}
	lesson, err := s.lessonInCourse(ctx, courseID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if v := trimmed(req.Title); v != nil {
		lesson.Title = *v
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if v := trimmed(req.VideoURL); v != nil {
		lesson.VideoURL = *v
	}
	if req.Order != nil {
		lesson.Order = *req.Order
	}
	if req.Duration != nil {
		lesson.Duration = *req.Duration
	}
	if req.IsPreview != nil {
		lesson.IsPreview = *req.IsPreview
	}

	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}
	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Delete(ctx context.Context, actor policy.Actor, courseID, lessonID string) error {
	if _, err := s.gate.manage(ctx, actor, courseID); err != nil {
		return err
	}
	if _, err := s.lessonInCourse(ctx, courseID, lessonID); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		return lookup(err, "lesson not found")
	}

	if err := s.refreshProgress(ctx, courseID); err != nil {
		s.logger.Warn().Err(err).Str("course_id", courseID).Msg("failed to refresh enrollment progress after lesson delete")
	}
	return nil
}

// refreshProgress recomputes the stored progress of every enrollment in the
// course once a lesson and its completions are gone. Dropping the last
// outstanding lesson completes the enrollment.
func (s *lessonService) refreshProgress(ctx context.Context, courseID string) error {
	total, err := s.lessons.CountByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	enrollments, err := s.gate.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range enrollments {
		enrollment := &enrollments[i]
		completed, err := s.gate.enrollments.CountCompletions(ctx, enrollment.ID)
		if err != nil {
			return err
		}
		enrollment.CompletedLessons = int(completed)
		enrollment.TotalLessons = int(total)
		enrollment.Progress = policy.ComputeProgress(enrollment.CompletedLessons, enrollment.TotalLessons)
		if enrollment.IsComplete() && enrollment.Status != models.EnrollmentStatusCompleted {
			enrollment.Status = models.EnrollmentStatusCompleted
			enrollment.CompletedAt = &now
		}
		if err := s.gate.enrollments.Update(ctx, enrollment); err != nil {
			return err
		}
	}
	return nil
}

func (s *lessonService) Reorder(ctx context.Context, actor policy.Actor, courseID string, req dto.LessonReorderRequest) ([]dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.gate.manage(ctx, actor, courseID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.LessonIDs))
	for _, id := range req.LessonIDs {
		if _, dup := seen[id]; dup {
			return nil, invalid("lesson ids must be unique")
		}
		seen[id] = struct{}{}
	}

	if err := s.lessons.Reorder(ctx, courseID, req.LessonIDs); err != nil {
		return nil, lookup(err, "lesson not found in course")
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) canView(ctx context.Context, actor policy.Actor, courseID string) error {
	course, err := s.gate.load(ctx, courseID)
	if err != nil {
		return err
	}
	if course.IsPublic() || policy.CanManage(actor, course) {
		return nil
	}
	if actor.IsAuthenticated() {
		_, err := s.gate.enrollment(ctx, actor, courseID)
		return err
	}
	return notFound("course not found")
}

func (s *lessonService) lessonInCourse(ctx context.Context, courseID, lessonID string) (models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Lesson{}, notFound("lesson not found")
		}
		return models.Lesson{}, err
	}
	if lesson.CourseID != courseID {
		return models.Lesson{}, notFound("lesson not found")
	}
	return lesson, nil
}
