package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

func TestStudentDashboardAggregatesAndCaches(t *testing.T) {
	db := setupServiceDB(t)
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	svc := NewStudentDashboardService(
		repository.NewEnrollmentRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		client,
		time.Minute,
		testLogger(),
	)
	ctx := context.Background()

	instructor, instructorActor := seedUser(t, db, "instructor", models.UserStatusActive)
	student, studentActor := seedUser(t, db, "student", models.UserStatusActive)
	course := seedApprovedCourse(t, db, instructor.ID)
	enrollment := seedEnrollment(t, db, student.ID, course.ID)
	require.NoError(t, db.Model(&enrollment).Update("progress", 40).Error)

	past := time.Now().Add(-time.Hour)
	graded := models.Assignment{CourseID: course.ID, InstructorID: instructor.ID, Title: "Graded work", MaxPoints: 100}
	overdue := models.Assignment{CourseID: course.ID, InstructorID: instructor.ID, Title: "Overdue work", DueDate: &past, MaxPoints: 100}
	require.NoError(t, db.Create(&graded).Error)
	require.NoError(t, db.Create(&overdue).Error)

	score := 90.0
	gradedAt := time.Now()
	submission := models.Submission{
		AssignmentID: graded.ID,
		StudentID:    student.ID,
		CourseID:     course.ID,
		Content:      "done",
		Status:       models.SubmissionStatusGraded,
		Grade:        &score,
		GradedAt:     &gradedAt,
		SubmittedAt:  gradedAt,
	}
	require.NoError(t, db.Create(&submission).Error)

	_, err = svc.GetDashboard(ctx, instructorActor)
	requireStatus(t, err, http.StatusForbidden)

	dashboard, err := svc.GetDashboard(ctx, studentActor)
	require.NoError(t, err)
	require.False(t, dashboard.CacheHit)
	require.Equal(t, 1, dashboard.Summary.EnrolledCourses)
	require.Equal(t, 2, dashboard.Summary.TotalAssignments)
	require.Equal(t, 1, dashboard.Summary.Graded)
	require.Equal(t, 1, dashboard.Summary.Overdue)
	require.InDelta(t, 90, dashboard.Summary.AverageGrade, 0.001)
	require.InDelta(t, 40, dashboard.Summary.AverageProgress, 0.001)
	require.Len(t, dashboard.Pending, 1)
	require.Equal(t, overdue.ID, dashboard.Pending[0].AssignmentID)
	require.Len(t, dashboard.RecentSubmissions, 1)
	require.Equal(t, "Graded work", dashboard.RecentSubmissions[0].AssignmentName)

	cached, err := svc.GetDashboard(ctx, studentActor)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.True(t, server.Exists("dashboard:student:"+student.ID))
}

func TestAdminOverviewCounts(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAdminOverviewService(
		repository.NewUserRepository(db),
		repository.NewCourseRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewSubmissionRepository(db),
		testLogger(),
	)
	ctx := context.Background()

	instructor, instructorActor := seedUser(t, db, "instructor", models.UserStatusActive)
	seedUser(t, db, "instructor", models.UserStatusPendingApproval)
	student, _ := seedUser(t, db, "student", models.UserStatusActive)
	_, admin := seedUser(t, db, "admin", models.UserStatusActive)
	course := seedApprovedCourse(t, db, instructor.ID)
	seedEnrollment(t, db, student.ID, course.ID)

	_, err := svc.GetOverview(ctx, instructorActor)
	requireStatus(t, err, http.StatusForbidden)

	overview, err := svc.GetOverview(ctx, admin)
	require.NoError(t, err)
	require.EqualValues(t, 2, overview.UsersByRole["instructor"])
	require.EqualValues(t, 1, overview.UsersByRole["student"])
	require.EqualValues(t, 1, overview.CoursesByStatus[models.CourseStatusApproved])
	require.EqualValues(t, 1, overview.Enrollments)
	require.EqualValues(t, 1, overview.PendingInstructors)
	require.Zero(t, overview.PendingSubmissions)
}
