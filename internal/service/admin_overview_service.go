package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// AdminOverviewService aggregates platform counters for the admin console.
type AdminOverviewService interface {
	GetOverview(ctx context.Context, actor policy.Actor) (dto.AdminOverviewResponse, error)
}

type adminOverviewService struct {
	users       repository.UserRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAdminOverviewService constructs the overview aggregator.
func NewAdminOverviewService(users repository.UserRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) AdminOverviewService {
	return &adminOverviewService{
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		submissions: submissions,
		logger:      logger.With().Str("component", "admin_overview_service").Logger(),
		tracer:      otel.Tracer(tracerPrefix + "admin_overview"),
		now:         time.Now,
	}
}

func (s *adminOverviewService) GetOverview(ctx context.Context, actor policy.Actor) (dto.AdminOverviewResponse, error) {
	if !actor.IsAdmin() {
		return dto.AdminOverviewResponse{}, forbidden("admin only")
	}

	ctx, span := s.tracer.Start(ctx, "admin.overview")
	defer span.End()

	fail := func(stage string, err error) (dto.AdminOverviewResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		s.logger.Error().Err(err).Str("stage", stage).Msg("failed to aggregate overview")
		return dto.AdminOverviewResponse{}, err
	}

	usersByRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return fail("users_by_role", err)
	}
	coursesByStatus, err := s.courses.CountByStatus(ctx)
	if err != nil {
		return fail("courses_by_status", err)
	}
	enrollments, err := s.enrollments.Count(ctx, "")
	if err != nil {
		return fail("enrollments", err)
	}
	completed, err := s.enrollments.Count(ctx, models.EnrollmentStatusCompleted)
	if err != nil {
		return fail("completed_enrollments", err)
	}
	pendingSubmissions, err := s.submissions.Count(ctx, models.SubmissionStatusPending, models.SubmissionStatusLate)
	if err != nil {
		return fail("pending_submissions", err)
	}
	pendingInstructors, err := s.users.CountByStatus(ctx, policy.RoleInstructor, models.UserStatusPendingApproval)
	if err != nil {
		return fail("pending_instructors", err)
	}

	span.SetStatus(codes.Ok, "aggregated")
	return dto.AdminOverviewResponse{
		UsersByRole:         usersByRole,
		CoursesByStatus:     coursesByStatus,
		Enrollments:         enrollments,
		CompletedEnrollment: completed,
		PendingSubmissions:  pendingSubmissions,
		PendingInstructors:  pendingInstructors,
		GeneratedAt:         s.now().UTC(),
	}, nil
}
