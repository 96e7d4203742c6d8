package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/observability"
	"github.com/noah-isme/lms-go-api/internal/policy"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler         *handler.AuthHandler
	AdminUserHandler    *handler.AdminUserHandler
	CourseHandler       *handler.CourseHandler
	LessonHandler       *handler.LessonHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	QuizHandler         *handler.QuizHandler
	DiscussionHandler   *handler.DiscussionHandler
	NotificationHandler *handler.NotificationHandler
	DashboardHandler    *handler.StudentDashboardHandler
	AdminHandler        *handler.AdminHandler
	HealthProbes        map[string]handler.HealthProbe
	JWTMiddleware       fiber.Handler
	OptionalAuth        fiber.Handler
	LoginLimiter        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	noop := func(c *fiber.Ctx) error { return c.Next() }
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = noop
	}
	optionalAuth := deps.OptionalAuth
	if optionalAuth == nil {
		optionalAuth = noop
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	}, optionalAuth)
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Auth and course routes share their prefix with public endpoints, so they
	// guard individual handlers instead of the whole group.
	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.LoginLimiter)
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(api.Group("/courses"))
	}
	if deps.LessonHandler != nil {
		deps.LessonHandler.Register(api.Group("/courses/:id/lessons", jwtMiddleware))
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.RegisterCourse(api.Group("/courses/:id/enrollments", jwtMiddleware))
		deps.EnrollmentHandler.Register(api.Group("/enrollments", jwtMiddleware))
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterCourse(api.Group("/courses/:id/assignments", jwtMiddleware))
		deps.AssignmentHandler.Register(api.Group("/assignments", jwtMiddleware))
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api.Group("/submissions", jwtMiddleware))
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.RegisterCourse(api.Group("/courses/:id/quizzes", jwtMiddleware))
		deps.QuizHandler.Register(api.Group("/quizzes", jwtMiddleware))
	}
	if deps.DiscussionHandler != nil {
		deps.DiscussionHandler.RegisterCourse(api.Group("/courses/:id/discussions", jwtMiddleware))
		deps.DiscussionHandler.Register(api.Group("/discussions", jwtMiddleware))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/student", jwtMiddleware))
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(policy.RoleAdmin))
	if deps.AdminUserHandler != nil {
		deps.AdminUserHandler.Register(admin.Group("/users"))
	}
	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterAdmin(admin.Group("/courses"))
	}
	if deps.AdminHandler != nil {
		deps.AdminHandler.Register(admin)
	}
}
