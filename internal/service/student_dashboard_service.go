package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

const recentSubmissionLimit = 5

// StudentDashboardService produces aggregated dashboard metrics.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, actor policy.Actor) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(enrollments repository.EnrollmentRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		enrollments: enrollments,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, actor policy.Actor) (dto.StudentDashboardResponse, error) {
	if err := requireActor(actor); err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	if !actor.IsStudent() {
		return dto.StudentDashboardResponse{}, forbidden("only students have a dashboard")
	}

	cacheKey := fmt.Sprintf("dashboard:student:%s", actor.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("student_id", actor.ID).Msg("dashboard cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	enrollments, err := s.enrollments.ListByUser(ctx, actor.ID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	courseIDs := make([]string, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
	}

	var assignments []models.Assignment
	if len(courseIDs) > 0 {
		assignments, err = s.assignments.ListByCourses(ctx, courseIDs...)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: actor.ID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(enrollments, assignments, submissions)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(enrollments []models.Enrollment, assignments []models.Assignment, submissions []models.Submission) dto.StudentDashboardResponse {
	now := s.now()
	summary := dto.ProgressSummary{EnrolledCourses: len(enrollments)}

	courses := make([]dto.CourseProgress, 0, len(enrollments))
	var progressTotal int
	for _, enrollment := range enrollments {
		title := ""
		if enrollment.Course != nil {
			title = enrollment.Course.Title
		}
		if enrollment.IsComplete() {
			summary.CompletedCourses++
		}
		progressTotal += enrollment.Progress
		courses = append(courses, dto.CourseProgress{
			EnrollmentID: enrollment.ID,
			CourseID:     enrollment.CourseID,
			Title:        title,
			Progress:     enrollment.Progress,
			Status:       enrollment.Status,
		})
	}
	if len(enrollments) > 0 {
		summary.AverageProgress = float64(progressTotal) / float64(len(enrollments))
	}

	submissionByAssignment := make(map[string]models.Submission, len(submissions))
	for _, submission := range submissions {
		submissionByAssignment[submission.AssignmentID] = submission
	}

	pending := make([]dto.AssignmentProgress, 0)
	for _, assignment := range assignments {
		summary.TotalAssignments++
		overdue := assignment.IsPastDue(now)
		submission, submitted := submissionByAssignment[assignment.ID]

		if submitted {
			summary.Submitted++
			if submission.IsGraded() {
				summary.Graded++
				continue
			}
			if submission.Status != models.SubmissionStatusReturned {
				continue
			}
		}

		summary.Pending++
		if overdue {
			summary.Overdue++
		}
		item := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			CourseID:     assignment.CourseID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			Status:       "not_submitted",
			Overdue:      overdue,
		}
		if submitted {
			id := submission.ID
			item.SubmissionID = &id
			item.Status = submission.Status
		}
		pending = append(pending, item)
	}

	var gradeTotal float64
	var gradedCount int
	graded := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if !submission.IsGraded() || submission.Grade == nil {
			continue
		}
		gradeTotal += *submission.Grade
		gradedCount++
		graded = append(graded, submission)
	}
	if gradedCount > 0 {
		summary.AverageGrade = gradeTotal / float64(gradedCount)
	}

	sort.SliceStable(graded, func(i, j int) bool {
		return gradedAt(graded[i]).After(gradedAt(graded[j]))
	})
	if len(graded) > recentSubmissionLimit {
		graded = graded[:recentSubmissionLimit]
	}

	activities := make([]dto.SubmissionActivity, 0, len(graded))
	for _, submission := range graded {
		name := ""
		if submission.Assignment != nil {
			name = submission.Assignment.Title
		}
		activities = append(activities, dto.SubmissionActivity{
			SubmissionID:   submission.ID,
			AssignmentID:   submission.AssignmentID,
			AssignmentName: name,
			Status:         submission.Status,
			Grade:          submission.Grade,
			Feedback:       submission.Feedback,
			UpdatedAt:      submission.UpdatedAt,
		})
	}

	return dto.StudentDashboardResponse{
		Summary:           summary,
		Courses:           courses,
		Pending:           pending,
		RecentSubmissions: activities,
	}
}

func gradedAt(submission models.Submission) time.Time {
	if submission.GradedAt != nil {
		return *submission.GradedAt
	}
	return submission.UpdatedAt
}
