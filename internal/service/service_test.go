package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/database"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role, status string) (models.User, policy.Actor) {
	t.Helper()
	user := models.User{
		Name:         role + " " + uuid.NewString()[:8],
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Status:       status,
	}
	require.NoError(t, db.Create(&user).Error)
	return user, policy.Actor{ID: user.ID, Role: role}
}

func seedApprovedCourse(t *testing.T, db *gorm.DB, instructorID string) models.Course {
	t.Helper()
	course := models.Course{InstructorID: instructorID, Title: "Go Basics", Status: models.CourseStatusApproved, IsApproved: true}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedLessons(t *testing.T, db *gorm.DB, courseID string, count int) []models.Lesson {
	t.Helper()
	lessons := make([]models.Lesson, 0, count)
	for i := 0; i < count; i++ {
		lesson := models.Lesson{CourseID: courseID, Title: fmt.Sprintf("Lesson %d", i+1), Order: i + 1}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return lessons
}

func seedEnrollment(t *testing.T, db *gorm.DB, userID, courseID string) models.Enrollment {
	t.Helper()
	enrollment := models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentStatusActive}
	require.NoError(t, db.Create(&enrollment).Error)
	return enrollment
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %v", err)
	require.Equal(t, status, appErr.Status)
}

func actorFor(user models.User) policy.Actor {
	return policy.Actor{ID: user.ID, Role: user.Role}
}
