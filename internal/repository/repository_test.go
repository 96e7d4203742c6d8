package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/database"
	"github.com/noah-isme/lms-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, status string) (models.User, models.Course) {
	t.Helper()
	instructor := models.User{Name: "Ina", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: "instructor", Status: models.UserStatusActive}
	require.NoError(t, db.Create(&instructor).Error)
	course := models.Course{InstructorID: instructor.ID, Title: "Go Basics", Status: status}
	require.NoError(t, db.Create(&course).Error)
	return instructor, course
}

func TestEnrollmentRepositoryRejectsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()
	_, course := seedCourse(t, db, models.CourseStatusApproved)

	first := models.Enrollment{UserID: "student-1", CourseID: course.ID, Status: models.EnrollmentStatusActive}
	require.NoError(t, repo.Create(ctx, &first))

	second := models.Enrollment{UserID: "student-1", CourseID: course.ID, Status: models.EnrollmentStatusActive}
	err := repo.Create(ctx, &second)
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))

	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEnrollmentRepositoryCompletionSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	lessons := NewLessonRepository(db)
	ctx := context.Background()
	_, course := seedCourse(t, db, models.CourseStatusApproved)

	lesson := models.Lesson{CourseID: course.ID, Title: "Intro", Order: 1}
	require.NoError(t, lessons.Create(ctx, &lesson))

	enrollment := models.Enrollment{UserID: "student-1", CourseID: course.ID, Status: models.EnrollmentStatusActive}
	require.NoError(t, repo.Create(ctx, &enrollment))

	require.NoError(t, repo.AddCompletion(ctx, &models.LessonCompletion{EnrollmentID: enrollment.ID, LessonID: lesson.ID, CompletedAt: time.Now()}))
	err := repo.AddCompletion(ctx, &models.LessonCompletion{EnrollmentID: enrollment.ID, LessonID: lesson.ID, CompletedAt: time.Now()})
	require.True(t, IsUniqueViolation(err))

	total, err := repo.CountCompletions(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	ids, err := repo.CompletedLessonIDs(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Equal(t, []string{lesson.ID}, ids)
}

func TestSubmissionRepositoryOneRowPerStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := models.Submission{AssignmentID: "a1", StudentID: "s1", CourseID: "c1", Status: models.SubmissionStatusPending, SubmittedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, &submission))

	dup := models.Submission{AssignmentID: "a1", StudentID: "s1", CourseID: "c1", Status: models.SubmissionStatusPending, SubmittedAt: time.Now()}
	require.True(t, IsUniqueViolation(repo.Create(ctx, &dup)))

	found, err := repo.GetByAssignmentAndStudent(ctx, "a1", "s1")
	require.NoError(t, err)
	require.Equal(t, submission.ID, found.ID)
}

func TestQuizRepositoryAttemptNumberUnique(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuizRepository(db)
	ctx := context.Background()

	quiz := models.Quiz{
		CourseID:        "c1",
		InstructorID:    "i1",
		Title:           "Checkpoint",
		AttemptsAllowed: 1,
		Questions: []models.Question{
			{Text: "2+2", Options: []string{"3", "4"}, CorrectOptionIndex: 1, Order: 2},
			{Text: "1+1", Options: []string{"2", "3"}, CorrectOptionIndex: 0, Order: 1},
		},
	}
	require.NoError(t, repo.Create(ctx, &quiz))

	loaded, err := repo.GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 2)
	require.Equal(t, "1+1", loaded.Questions[0].Text)
	require.Equal(t, []string{"2", "3"}, []string(loaded.Questions[0].Options))

	attempt := models.QuizAttempt{QuizID: quiz.ID, StudentID: "s1", AttemptNumber: 1, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateAttempt(ctx, &attempt))
	dup := models.QuizAttempt{QuizID: quiz.ID, StudentID: "s1", AttemptNumber: 1, SubmittedAt: time.Now()}
	require.True(t, IsUniqueViolation(repo.CreateAttempt(ctx, &dup)))

	count, err := repo.CountAttempts(ctx, quiz.ID, "s1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestCourseRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	instructor, approved := seedCourse(t, db, models.CourseStatusApproved)
	draft := models.Course{InstructorID: instructor.ID, Title: "Rust Deep Dive", Status: models.CourseStatusDraft}
	require.NoError(t, repo.Create(ctx, &draft))
	archived := models.Course{InstructorID: instructor.ID, Title: "Old Go", Status: models.CourseStatusArchived}
	require.NoError(t, repo.Create(ctx, &archived))

	courses, total, err := repo.List(ctx, CourseFilter{Status: models.CourseStatusApproved, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, approved.ID, courses[0].ID)
	require.NotNil(t, courses[0].Instructor)

	_, total, err = repo.List(ctx, CourseFilter{InstructorID: instructor.ID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total, "archived courses are excluded by default")

	_, total, err = repo.List(ctx, CourseFilter{Search: "rust"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[models.CourseStatusDraft])
}

func TestLessonRepositoryReorder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)
	ctx := context.Background()
	_, course := seedCourse(t, db, models.CourseStatusDraft)

	a := models.Lesson{CourseID: course.ID, Title: "A", Order: 1}
	b := models.Lesson{CourseID: course.ID, Title: "B", Order: 2}
	require.NoError(t, repo.Create(ctx, &a))
	require.NoError(t, repo.Create(ctx, &b))

	next, err := repo.NextOrder(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 3, next)

	require.NoError(t, repo.Reorder(ctx, course.ID, []string{b.ID, a.ID}))
	lessons, err := repo.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, "B", lessons[0].Title)

	require.ErrorIs(t, repo.Reorder(ctx, course.ID, []string{"missing"}), gorm.ErrRecordNotFound)
}

func TestNotificationRepositoryReadFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{UserID: "u1", Type: models.NotificationGrade, Title: "t", Message: "m"}))
	}
	other := models.Notification{UserID: "u2", Type: models.NotificationGrade, Title: "t", Message: "m"}
	require.NoError(t, repo.Create(ctx, &other))

	items, total, err := repo.List(ctx, NotificationFilter{UserID: "u1", PageSize: 2, Page: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 2)

	read, err := repo.MarkRead(ctx, items[0].ID, "u1", time.Now())
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	_, err = repo.MarkRead(ctx, other.ID, "u1", time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	unread, err := repo.CountUnread(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(2), unread)

	updated, err := repo.MarkAllRead(ctx, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	require.ErrorIs(t, repo.Delete(ctx, other.ID, "u1"), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, other.ID, "u2"))
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	require.True(t, IsUniqueViolation(fmt.Errorf("ERROR: duplicate key value violates unique constraint")))
	require.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}

func TestActivityLogRepositoryFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	courseID := uuid.NewString()
	otherID := uuid.NewString()
	for _, entry := range []models.ActivityLog{
		{ActorID: "admin-1", ActorRole: "admin", Action: "course.approved", EntityType: "course", EntityID: &courseID},
		{ActorID: "admin-1", ActorRole: "admin", Action: "course.rejected", EntityType: "course", EntityID: &otherID},
		{ActorID: "admin-2", ActorRole: "admin", Action: "user.status_changed", EntityType: "user"},
	} {
		entry := entry
		require.NoError(t, repo.Create(ctx, &entry))
	}

	entries, total, err := repo.List(ctx, ActivityLogFilter{Page: 1, PageSize: 10, EntityType: "course", EntityID: courseID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "course.approved", entries[0].Action)

	_, total, err = repo.List(ctx, ActivityLogFilter{Page: 1, PageSize: 10, ActorID: "admin-1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	_, total, err = repo.List(ctx, ActivityLogFilter{Page: 1, PageSize: 10, Since: time.Now().Add(-48 * time.Hour)})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	entries, total, err = repo.List(ctx, ActivityLogFilter{Page: 1, PageSize: 10, Since: time.Now().Add(48 * time.Hour)})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, entries)
}
