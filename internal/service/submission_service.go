package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/observability"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// SubmissionService covers delivering, grading and returning assignment work.
type SubmissionService interface {
	Submit(ctx context.Context, actor policy.Actor, assignmentID string, req dto.SubmissionCreateRequest) (dto.SubmissionResponse, bool, error)
	Grade(ctx context.Context, actor policy.Actor, id string, req dto.GradeSubmissionRequest) (OperationResult[dto.SubmissionResponse], error)
	Return(ctx context.Context, actor policy.Actor, id string, req dto.ReturnSubmissionRequest) (OperationResult[dto.SubmissionResponse], error)
	Get(ctx context.Context, actor policy.Actor, id string) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, actor policy.Actor, assignmentID string) ([]dto.SubmissionResponse, error)
	ListMine(ctx context.Context, actor policy.Actor) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	gate        courseGate
	uploads     UploadService
	activity    ActivityRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService wires the submission workflow.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, uploads UploadService, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		gate:        courseGate{courses: courses, enrollments: enrollments},
		uploads:     uploads,
		activity:    activity,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer(tracerPrefix + "submission"),
		now:         time.Now,
	}
}

// Submit stores a student's work. A student has at most one submission per
// assignment: resubmitting overwrites it and clears any previous grade. The
// boolean result reports whether a new row was created.
func (s *submissionService) Submit(ctx context.Context, actor policy.Actor, assignmentID string, req dto.SubmissionCreateRequest) (dto.SubmissionResponse, bool, error) {
	if err := requireActor(actor); err != nil {
		return dto.SubmissionResponse{}, false, err
	}
	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, false, forbidden("only students can submit assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, false, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && req.File == nil {
		return dto.SubmissionResponse{}, false, invalid("content or file is required")
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, false, lookup(err, "assignment not found")
	}
	if _, err := s.gate.enrollment(ctx, actor, assignment.CourseID); err != nil {
		return dto.SubmissionResponse{}, false, err
	}

	fileURL := ""
	if req.File != nil {
		stored, err := s.uploads.Store(ctx, *req.File)
		if err != nil {
			return dto.SubmissionResponse{}, false, err
		}
		fileURL = stored.URL
	}

	now := s.now().UTC()
	status := models.SubmissionStatusPending
	if assignment.IsPastDue(now) {
		status = models.SubmissionStatusLate
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, actor.ID)
	switch {
	case err == nil:
		updated, err := s.overwrite(ctx, existing, content, fileURL, status, now)
		return updated, false, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.SubmissionResponse{}, false, err
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    actor.ID,
		CourseID:     assignment.CourseID,
		Content:      content,
		FileURL:      fileURL,
		Status:       status,
		SubmittedAt:  now,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		if !repository.IsUniqueViolation(err) {
			return dto.SubmissionResponse{}, false, err
		}
		existing, lookupErr := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, actor.ID)
		if lookupErr != nil {
			return dto.SubmissionResponse{}, false, lookupErr
		}
		updated, err := s.overwrite(ctx, existing, content, fileURL, status, now)
		return updated, false, err
	}

	s.logger.Info().Str("submission_id", submission.ID).Str("assignment_id", assignment.ID).Msg("submission created")

	submission.Assignment = &assignment
	return dto.NewSubmissionResponse(submission), true, nil
}

func (s *submissionService) overwrite(ctx context.Context, submission models.Submission, content, fileURL, status string, at time.Time) (dto.SubmissionResponse, error) {
	submission.Content = content
	if fileURL != "" {
		submission.FileURL = fileURL
	}
	submission.Status = status
	submission.Grade = nil
	submission.Feedback = ""
	submission.GradedBy = nil
	submission.GradedAt = nil
	submission.SubmittedAt = at

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Str("submission_id", submission.ID).Msg("submission overwritten")
	return dto.NewSubmissionResponse(submission), nil
}

// Grade writes a 0..100 grade. Repeating the same grade and feedback as the
// same grader changes nothing and emits no event.
func (s *submissionService) Grade(ctx context.Context, actor policy.Actor, id string, req dto.GradeSubmissionRequest) (OperationResult[dto.SubmissionResponse], error) {
	ctx, span := s.tracer.Start(ctx, "grading.update", trace.WithAttributes(
		attribute.String("grading.submission_id", id),
		attribute.String("grading.actor_id", actor.ID),
	))
	defer span.End()

	fail := func(status string, err error) (OperationResult[dto.SubmissionResponse], error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return OperationResult[dto.SubmissionResponse]{}, err
	}

	if err := requireActor(actor); err != nil {
		return fail("unauthenticated", err)
	}
	if err := s.validator.Struct(req); err != nil {
		return fail("validation_failed", err)
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return fail("submission_lookup_failed", lookup(err, "submission not found"))
	}
	if _, err := s.gate.manage(ctx, actor, submission.CourseID); err != nil {
		return fail("forbidden", err)
	}

	score := *req.Grade
	feedback := strings.TrimSpace(req.Feedback)

	if submission.IsGraded() && submission.Grade != nil &&
		math.Abs(*submission.Grade-score) < 1e-6 &&
		strings.TrimSpace(submission.Feedback) == feedback &&
		submission.GradedBy != nil && *submission.GradedBy == actor.ID {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return result(s.withHistory(ctx, submission)), nil
	}

	gradedAt := s.now().UTC()
	graderID := actor.ID
	submission.Grade = &score
	submission.Feedback = feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt
	submission.GradedBy = &graderID

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return fail("submission_update_failed", err)
	}
	observability.Grades().Inc()

	history := models.SubmissionGradeHistory{
		SubmissionID: submission.ID,
		Score:        score,
		Feedback:     feedback,
		GradedBy:     actor.ID,
		GradedAt:     gradedAt,
	}
	if err := s.submissions.CreateHistory(ctx, &history); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to persist grading history")
		span.RecordError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.graded",
		EntityType: "submission",
		EntityID:   submission.ID,
		Metadata: map[string]interface{}{
			"student_id":    submission.StudentID,
			"assignment_id": submission.AssignmentID,
			"score":         score,
		},
	})

	span.SetAttributes(attribute.Float64("grading.score", score))

	event := dto.NotificationRequest{
		UserID:      submission.StudentID,
		Type:        models.NotificationGrade,
		Title:       "Submission graded",
		Message:     fmt.Sprintf("Your submission for \"%s\" was graded: %s/100.", assignmentTitle(submission), formatScore(score)),
		RelatedType: "submission",
		RelatedID:   submission.ID,
	}
	return result(s.withHistory(ctx, submission), event), nil
}

// Return sends the work back to the student for revision.
func (s *submissionService) Return(ctx context.Context, actor policy.Actor, id string, req dto.ReturnSubmissionRequest) (OperationResult[dto.SubmissionResponse], error) {
	if err := requireActor(actor); err != nil {
		return OperationResult[dto.SubmissionResponse]{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return OperationResult[dto.SubmissionResponse]{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return OperationResult[dto.SubmissionResponse]{}, lookup(err, "submission not found")
	}
	if _, err := s.gate.manage(ctx, actor, submission.CourseID); err != nil {
		return OperationResult[dto.SubmissionResponse]{}, err
	}

	feedback := strings.TrimSpace(req.Feedback)
	submission.Status = models.SubmissionStatusReturned
	submission.Feedback = feedback
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return OperationResult[dto.SubmissionResponse]{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.returned",
		EntityType: "submission",
		EntityID:   submission.ID,
		Metadata:   map[string]interface{}{"student_id": submission.StudentID},
	})

	event := dto.NotificationRequest{
		UserID:      submission.StudentID,
		Type:        models.NotificationSubmissionReturn,
		Title:       "Submission returned",
		Message:     fmt.Sprintf("Your submission for \"%s\" was returned for revision: %s", assignmentTitle(submission), feedback),
		RelatedType: "submission",
		RelatedID:   submission.ID,
	}
	return result(dto.NewSubmissionResponse(submission), event), nil
}

func (s *submissionService) Get(ctx context.Context, actor policy.Actor, id string) (dto.SubmissionResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.SubmissionResponse{}, err
	}
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, lookup(err, "submission not found")
	}
	if submission.StudentID != actor.ID {
		if _, err := s.gate.manage(ctx, actor, submission.CourseID); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}
	return s.withHistory(ctx, submission), nil
}

// ListByAssignment returns every submission to course managers and only the
// caller's own submission to students.
func (s *submissionService) ListByAssignment(ctx context.Context, actor policy.Actor, assignmentID string) ([]dto.SubmissionResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, lookup(err, "assignment not found")
	}

	_, manager, err := s.gate.participate(ctx, actor, assignment.CourseID)
	if err != nil {
		return nil, err
	}

	filter := repository.SubmissionFilter{AssignmentID: assignment.ID}
	if !manager {
		filter.StudentID = actor.ID
	}
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListMine(ctx context.Context, actor policy.Actor) ([]dto.SubmissionResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: actor.ID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) withHistory(ctx context.Context, submission models.Submission) dto.SubmissionResponse {
	response := dto.NewSubmissionResponse(submission)
	history, err := s.submissions.ListHistory(ctx, submission.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to load grading history")
		return response
	}
	return response.WithHistory(history)
}

func assignmentTitle(submission models.Submission) string {
	if submission.Assignment != nil && submission.Assignment.Title != "" {
		return submission.Assignment.Title
	}
	return "your assignment"
}

func formatScore(score float64) string {
	if score == math.Trunc(score) {
		return fmt.Sprintf("%.0f", score)
	}
	return fmt.Sprintf("%.1f", score)
}
