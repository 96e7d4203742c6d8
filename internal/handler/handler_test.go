package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/database"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/internal/router"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
	"github.com/noah-isme/lms-go-api/pkg/certificate"
	"github.com/noah-isme/lms-go-api/pkg/storage"
)

const testSecret = "handler-test-secret"

type testApp struct {
	app           *fiber.App
	db            *gorm.DB
	notifications service.NotificationService
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func setupApp(t *testing.T) testApp {
	t.Helper()

	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	uploads, err := storage.NewLocalStorage(t.TempDir(), "/uploads", logger)
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	lessons := repository.NewLessonRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), users, nil, nil, "", validate, logger)
	submissionService := service.NewSubmissionService(submissions, assignments, courses, enrollments, service.NewUploadService(uploads, 1024*1024, logger), activity, validate, logger)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler(logger)})
	middleware.Register(app, middleware.Config{Logger: &logger})

	router.Register(app, config.Config{AppName: "LMS Test", AppEnv: "test", JWTSecret: testSecret}, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(service.NewAuthService(users, validate, logger, service.AuthConfig{Secret: testSecret, Expiry: time.Hour}), logger),
		AdminUserHandler:    handler.NewAdminUserHandler(service.NewUserService(users, activity, validate, logger), notifications, logger),
		CourseHandler:       handler.NewCourseHandler(service.NewCourseService(courses, enrollments, activity, nil, 0, validate, logger), notifications, logger),
		LessonHandler:       handler.NewLessonHandler(service.NewLessonService(lessons, courses, enrollments, validate, logger), logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(service.NewEnrollmentService(enrollments, courses, lessons, users, certificate.NewRenderer("LMS Test"), validate, logger), notifications, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(service.NewAssignmentService(assignments, courses, enrollments, validate, logger), submissionService, notifications, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, notifications, logger),
		QuizHandler:         handler.NewQuizHandler(service.NewQuizService(repository.NewQuizRepository(db), courses, enrollments, validate, logger), logger),
		DiscussionHandler:   handler.NewDiscussionHandler(service.NewDiscussionService(repository.NewDiscussionRepository(db), courses, enrollments, validate, logger), notifications, logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger, time.Second),
		DashboardHandler:    handler.NewStudentDashboardHandler(service.NewStudentDashboardService(enrollments, assignments, submissions, nil, 0, logger), logger),
		AdminHandler:        handler.NewAdminHandler(service.NewAdminOverviewService(users, courses, enrollments, submissions, logger), activity, logger),
		JWTMiddleware:       middleware.JWTProtected(testSecret),
		OptionalAuth:        middleware.OptionalJWT(testSecret),
		LoginLimiter:        middleware.RateLimit("login", 3, time.Minute),
	})

	return testApp{app: app, db: db, notifications: notifications}
}

func (a testApp) seedUser(t *testing.T, role string) (models.User, string) {
	t.Helper()
	user := models.User{
		Name:         role + " " + uuid.NewString()[:6],
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, a.db.Create(&user).Error)
	return user, tokenFor(t, user)
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (a testApp) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return a.send(t, req, token)
}

func (a testApp) send(t *testing.T, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var env envelope
	if resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON || json.Valid(raw) {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

// approvedCourse walks a course through create, submit and approve over HTTP.
func (a testApp) approvedCourse(t *testing.T, instructorToken, adminToken string, lessonCount int) (string, []string) {
	t.Helper()

	resp, env := a.do(t, http.MethodPost, "/api/v1/courses", instructorToken, map[string]interface{}{
		"title":       "Concurrency in Go",
		"description": "Goroutines and channels",
		"level":       "beginner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	courseID := decode[map[string]interface{}](t, env)["id"].(string)

	lessonIDs := make([]string, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		resp, env = a.do(t, http.MethodPost, "/api/v1/courses/"+courseID+"/lessons", instructorToken, map[string]interface{}{
			"title":   fmt.Sprintf("Lesson %02d", i+1),
			"content": "Reading material",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
		lessonIDs = append(lessonIDs, decode[map[string]interface{}](t, env)["id"].(string))
	}

	resp, env = a.do(t, http.MethodPut, "/api/v1/courses/"+courseID+"/submit", instructorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, env = a.do(t, http.MethodPut, "/api/v1/courses/"+courseID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	return courseID, lessonIDs
}
