package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/pkg/certificate"
)

// Certificate is a rendered completion certificate.
type Certificate struct {
	Filename string
	Content  []byte
}

// EnrollmentService tracks course enrollments and lesson progress.
type EnrollmentService interface {
	Enroll(ctx context.Context, actor policy.Actor, req dto.EnrollmentCreateRequest) (OperationResult[dto.EnrollmentResponse], error)
	MarkLessonComplete(ctx context.Context, actor policy.Actor, enrollmentID, lessonID string) (OperationResult[dto.EnrollmentResponse], error)
	Get(ctx context.Context, actor policy.Actor, id string) (dto.EnrollmentResponse, error)
	ListMine(ctx context.Context, actor policy.Actor) ([]dto.EnrollmentResponse, error)
	ListByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, actor policy.Actor, id string) error
	Certificate(ctx context.Context, actor policy.Actor, id string) (Certificate, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	lessons     repository.LessonRepository
	users       repository.UserRepository
	renderer    *certificate.Renderer
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, lessons repository.LessonRepository, users repository.UserRepository, renderer *certificate.Renderer, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		lessons:     lessons,
		users:       users,
		renderer:    renderer,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		tracer:      otel.Tracer(tracerPrefix + "enrollment"),
		now:         time.Now,
	}
}

// Enroll relies on the (user_id, course_id) unique index to reject duplicates,
// so concurrent requests cannot both succeed.
func (s *enrollmentService) Enroll(ctx context.Context, actor policy.Actor, req dto.EnrollmentCreateRequest) (OperationResult[dto.EnrollmentResponse], error) {
	if err := requireActor(actor); err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, err
	}
	if !actor.IsStudent() {
		return OperationResult[dto.EnrollmentResponse]{}, forbidden("only students can enroll in courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, err
	}

	ctx, span := s.tracer.Start(ctx, "enrollment.create", trace.WithAttributes(
		attribute.String("enrollment.user_id", actor.ID),
		attribute.String("enrollment.course_id", req.CourseID),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil || !course.IsPublic() {
		if err = lookup(err, "course not found or not approved"); err == nil {
			err = notFound("course not found or not approved")
		}
		span.SetStatus(codes.Error, "course_unavailable")
		return OperationResult[dto.EnrollmentResponse]{}, err
	}

	total, err := s.lessons.CountByCourse(ctx, course.ID)
	if err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, err
	}

	accessedAt := s.now().UTC()
	enrollment := models.Enrollment{
		UserID:         actor.ID,
		CourseID:       course.ID,
		Status:         models.EnrollmentStatusActive,
		TotalLessons:   int(total),
		LastAccessedAt: &accessedAt,
	}
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			span.SetStatus(codes.Error, "duplicate")
			return OperationResult[dto.EnrollmentResponse]{}, conflict("already enrolled in this course")
		}
		span.RecordError(err)
		return OperationResult[dto.EnrollmentResponse]{}, err
	}
	enrollment.Course = &course

	s.logger.Info().Str("enrollment_id", enrollment.ID).Str("course_id", course.ID).Msg("student enrolled")

	studentName := "A new student"
	if s.users != nil {
		if student, err := s.users.GetByID(ctx, actor.ID); err == nil && student.Name != "" {
			studentName = student.Name
		}
	}
	event := dto.NotificationRequest{
		UserID:      course.InstructorID,
		Type:        models.NotificationEnrollment,
		Title:       "New enrollment",
		Message:     fmt.Sprintf("%s enrolled in \"%s\".", studentName, course.Title),
		RelatedType: "course",
		RelatedID:   course.ID,
	}
	return result(dto.NewEnrollmentResponse(enrollment), event), nil
}

// MarkLessonComplete records the lesson in the enrollment's completion set and
// recomputes progress from the set size. Completing a lesson twice is a no-op.
func (s *enrollmentService) MarkLessonComplete(ctx context.Context, actor policy.Actor, enrollmentID, lessonID string) (OperationResult[dto.EnrollmentResponse], error) {
	if err := requireActor(actor); err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, err
	}

	ctx, span := s.tracer.Start(ctx, "enrollment.complete_lesson", trace.WithAttributes(
		attribute.String("enrollment.id", enrollmentID),
		attribute.String("enrollment.lesson_id", lessonID),
	))
	defer span.End()

	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, lookup(err, "enrollment not found")
	}
	if enrollment.UserID != actor.ID {
		return OperationResult[dto.EnrollmentResponse]{}, forbidden("not enrolled in this course")
	}

	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, lookup(err, "lesson not found")
	}
	if lesson.CourseID != enrollment.CourseID {
		return OperationResult[dto.EnrollmentResponse]{}, notFound("lesson not found in this course")
	}

	now := s.now().UTC()
	completion := models.LessonCompletion{
		EnrollmentID: enrollment.ID,
		LessonID:     lesson.ID,
		CompletedAt:  now,
	}
	if err := s.enrollments.AddCompletion(ctx, &completion); err != nil && !repository.IsUniqueViolation(err) {
		span.RecordError(err)
		return OperationResult[dto.EnrollmentResponse]{}, err
	}

	completed, err := s.enrollments.CountCompletions(ctx, enrollment.ID)
	if err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, err
	}
	total, err := s.lessons.CountByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return OperationResult[dto.EnrollmentResponse]{}, err
	}

	wasComplete := enrollment.Status == models.EnrollmentStatusCompleted
	enrollment.CompletedLessons = int(completed)
	enrollment.TotalLessons = int(total)
	enrollment.Progress = policy.ComputeProgress(enrollment.CompletedLessons, enrollment.TotalLessons)
	enrollment.LastAccessedAt = &now
	if enrollment.IsComplete() && !wasComplete {
		enrollment.Status = models.EnrollmentStatusCompleted
		enrollment.CompletedAt = &now
	}

	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		span.RecordError(err)
		return OperationResult[dto.EnrollmentResponse]{}, err
	}
	span.SetAttributes(attribute.Int("enrollment.progress", enrollment.Progress))

	events := []dto.NotificationRequest{}
	if enrollment.Status == models.EnrollmentStatusCompleted && !wasComplete {
		title := "your course"
		if enrollment.Course != nil {
			title = fmt.Sprintf("\"%s\"", enrollment.Course.Title)
		}
		events = append(events, dto.NotificationRequest{
			UserID:      enrollment.UserID,
			Type:        models.NotificationCourseCompleted,
			Title:       "Course completed",
			Message:     fmt.Sprintf("Congratulations, you completed %s. Your certificate is ready.", title),
			RelatedType: "enrollment",
			RelatedID:   enrollment.ID,
		})
	}

	return result(dto.NewEnrollmentResponse(enrollment), events...), nil
}

func (s *enrollmentService) Get(ctx context.Context, actor policy.Actor, id string) (dto.EnrollmentResponse, error) {
	enrollment, err := s.visible(ctx, actor, id)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	lessonIDs, err := s.enrollments.CompletedLessonIDs(ctx, enrollment.ID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	response := dto.NewEnrollmentResponse(enrollment)
	response.CompletedLessonIDs = lessonIDs
	return response, nil
}

func (s *enrollmentService) ListMine(ctx context.Context, actor policy.Actor) ([]dto.EnrollmentResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) ListByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]dto.EnrollmentResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, lookup(err, "course not found")
	}
	if !policy.CanManage(actor, course) {
		return nil, forbidden("you do not manage this course")
	}
	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return lookup(err, "enrollment not found")
	}
	if !policy.CanManage(actor, enrollment) {
		return forbidden("only the enrolled student or an admin can unenroll")
	}
	return lookup(s.enrollments.Delete(ctx, id), "enrollment not found")
}

// Certificate renders a PDF for a fully completed enrollment.
func (s *enrollmentService) Certificate(ctx context.Context, actor policy.Actor, id string) (Certificate, error) {
	if err := requireActor(actor); err != nil {
		return Certificate{}, err
	}
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return Certificate{}, lookup(err, "enrollment not found")
	}
	if !policy.CanManage(actor, enrollment) {
		return Certificate{}, forbidden("only the enrolled student or an admin can download this certificate")
	}
	if !enrollment.IsComplete() {
		return Certificate{}, invalid("course is not completed yet")
	}

	course, err := s.courses.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return Certificate{}, lookup(err, "course not found")
	}
	student, err := s.users.GetByID(ctx, enrollment.UserID)
	if err != nil {
		return Certificate{}, lookup(err, "student not found")
	}

	completedAt := s.now().UTC()
	if enrollment.CompletedAt != nil {
		completedAt = *enrollment.CompletedAt
	}

	data := certificate.Data{
		Number:      certificate.Number(enrollment.ID, completedAt),
		StudentName: student.Name,
		CourseTitle: course.Title,
		CompletedAt: completedAt,
	}
	if course.Instructor != nil {
		data.InstructorName = course.Instructor.Name
	}

	content, err := s.renderer.Render(data)
	if err != nil {
		s.logger.Error().Err(err).Str("enrollment_id", enrollment.ID).Msg("failed to render certificate")
		return Certificate{}, err
	}

	return Certificate{Filename: data.Number + ".pdf", Content: content}, nil
}

// visible admits the enrolled student, the course manager and admins.
func (s *enrollmentService) visible(ctx context.Context, actor policy.Actor, id string) (models.Enrollment, error) {
	if err := requireActor(actor); err != nil {
		return models.Enrollment{}, err
	}
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return models.Enrollment{}, lookup(err, "enrollment not found")
	}
	if policy.CanManage(actor, enrollment) {
		return enrollment, nil
	}
	if enrollment.Course != nil && policy.CanManage(actor, *enrollment.Course) {
		return enrollment, nil
	}
	return models.Enrollment{}, forbidden("you cannot view this enrollment")
}
