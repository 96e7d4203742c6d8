package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// AssignmentService exposes assignment use cases scoped to a course.
type AssignmentService interface {
	ListByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, actor policy.Actor, id string) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor policy.Actor, req dto.AssignmentCreateRequest) (OperationResult[dto.AssignmentResponse], error)
	Update(ctx context.Context, actor policy.Actor, id string, req dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	gate        courseGate
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		enrollments: enrollments,
		gate:        courseGate{courses: courses, enrollments: enrollments},
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) ListByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]dto.AssignmentResponse, error) {
	if _, _, err := s.gate.participate(ctx, actor, courseID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByCourses(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, actor policy.Actor, id string) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if _, _, err := s.gate.participate(ctx, actor, assignment.CourseID); err != nil {
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

// Create copies the owning instructor from the course and tells enrolled
// students about the new work.
func (s *assignmentService) Create(ctx context.Context, actor policy.Actor, req dto.AssignmentCreateRequest) (OperationResult[dto.AssignmentResponse], error) {
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.AssignmentResponse]{}, err
	}
	course, err := s.gate.manage(ctx, actor, req.CourseID)
	if err != nil {
		return OperationResult[dto.AssignmentResponse]{}, err
	}

	maxPoints := req.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 100
	}

	assignment := models.Assignment{
		CourseID:      course.ID,
		InstructorID:  course.InstructorID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		DueDate:       req.DueDate,
		MaxPoints:     maxPoints,
		AttachmentURL: strings.TrimSpace(req.AttachmentURL),
	}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return OperationResult[dto.AssignmentResponse]{}, err
	}

	s.logger.Info().Str("assignment_id", assignment.ID).Str("course_id", course.ID).Msg("assignment created")

	events, err := s.announce(ctx, course, assignment)
	if err != nil {
		s.logger.Warn().Err(err).Str("assignment_id", assignment.ID).Msg("failed to collect assignment recipients")
	}

	return result(dto.NewAssignmentResponse(assignment), events...), nil
}

func (s *assignmentService) Update(ctx context.Context, actor policy.Actor, id string, req dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}
	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if _, err := s.gate.manage(ctx, actor, assignment.CourseID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if v := trimmed(req.Title); v != nil {
		assignment.Title = *v
	}
	if v := trimmed(req.Description); v != nil {
		assignment.Description = *v
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate
	}
	if req.MaxPoints != nil {
		assignment.MaxPoints = *req.MaxPoints
	}
	if v := trimmed(req.AttachmentURL); v != nil {
		assignment.AttachmentURL = *v
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.gate.manage(ctx, actor, assignment.CourseID); err != nil {
		return err
	}
	return lookup(s.assignments.Delete(ctx, id), "assignment not found")
}

func (s *assignmentService) load(ctx context.Context, id string) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return models.Assignment{}, lookup(err, "assignment not found")
	}
	return assignment, nil
}

func (s *assignmentService) announce(ctx context.Context, course models.Course, assignment models.Assignment) ([]dto.NotificationRequest, error) {
	enrollments, err := s.enrollments.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("A new assignment \"%s\" was posted in \"%s\".", assignment.Title, course.Title)
	if assignment.DueDate != nil {
		message += " Due " + assignment.DueDate.UTC().Format("2006-01-02 15:04 MST") + "."
	}

	events := make([]dto.NotificationRequest, 0, len(enrollments))
	for _, enrollment := range enrollments {
		events = append(events, dto.NotificationRequest{
			UserID:      enrollment.UserID,
			Type:        models.NotificationAssignmentCreated,
			Title:       "New assignment",
			Message:     message,
			RelatedType: "assignment",
			RelatedID:   assignment.ID,
		})
	}
	return events, nil
}
