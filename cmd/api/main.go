package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/config"
	"github.com/noah-isme/lms-go-api/internal/database"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/internal/router"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/internal/utils"
	"github.com/noah-isme/lms-go-api/pkg/certificate"
	"github.com/noah-isme/lms-go-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DatabaseAutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Redis and NATS are optional; without them caching is off and
	// notifications only reach subscribers on this node.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without cache and cross-node fan-out")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without it")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	uploader, uploadDir, err := newUploader(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure file storage")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, validate, logger, service.AuthConfig{
		Secret: cfg.JWTSecret,
		Expiry: cfg.JWTExpiry,
		Issuer: cfg.AppName,
	})
	userService := service.NewUserService(userRepo, activityService, validate, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, activityService, redisClient, cfg.CourseCacheTTL, validate, logger)
	lessonService := service.NewLessonService(lessonRepo, courseRepo, enrollmentRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, lessonRepo, userRepo, certificate.NewRenderer(cfg.AppName), validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, validate, logger)
	uploadService := service.NewUploadService(uploader, cfg.UploadMaxBytes(), logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, courseRepo, enrollmentRepo, uploadService, activityService, validate, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, enrollmentRepo, validate, logger)
	discussionService := service.NewDiscussionService(discussionRepo, courseRepo, enrollmentRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, redisClient, natsConn, cfg.NotificationChannel, validate, logger)
	dashboardService := service.NewStudentDashboardService(enrollmentRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	overviewService := service.NewAdminOverviewService(userRepo, courseRepo, enrollmentRepo, submissionRepo, logger)
	seedService := service.NewSeedService(userRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := seedService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("failed to bootstrap admin account")
		}
	}

	notificationService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.UploadMaxBytes()) + 1024*1024,
		ErrorHandler: utils.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	if uploadDir != "" {
		app.Static("/uploads", uploadDir)
	}

	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		AdminUserHandler:    handler.NewAdminUserHandler(userService, notificationService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, notificationService, logger),
		LessonHandler:       handler.NewLessonHandler(lessonService, logger),
		EnrollmentHandler:   handler.NewEnrollmentHandler(enrollmentService, notificationService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, submissionService, notificationService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, notificationService, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, logger),
		DiscussionHandler:   handler.NewDiscussionHandler(discussionService, notificationService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.NotificationKeepAlive),
		DashboardHandler:    handler.NewStudentDashboardHandler(dashboardService, logger),
		AdminHandler:        handler.NewAdminHandler(overviewService, activityService, logger),
		HealthProbes:        healthProbes(db, redisClient, natsConn),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		OptionalAuth:        middleware.OptionalJWT(cfg.JWTSecret),
		LoginLimiter:        middleware.RateLimit("login", cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancel, logger)
}

// newUploader picks the storage backend. The returned directory is served
// under /uploads and is empty for remote backends.
func newUploader(cfg config.Config, logger zerolog.Logger) (storage.Uploader, string, error) {
	switch cfg.StorageDriver {
	case "cloudinary":
		cld, err := storage.NewCloudinary(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return cld, "", nil
	case "", "local":
		local, err := storage.NewLocalStorage(cfg.StorageLocalDir, cfg.StoragePublicBaseURL, logger)
		if err != nil {
			return nil, "", err
		}
		return local, local.BaseDir(), nil
	default:
		return nil, "", fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
