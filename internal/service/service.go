package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

const tracerPrefix = "github.com/noah-isme/lms-go-api/internal/service/"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OperationResult carries the entity produced by a state change together with
// the notifications the caller must dispatch once the write has committed.
type OperationResult[T any] struct {
	Entity T
	Events []dto.NotificationRequest
}

func result[T any](entity T, events ...dto.NotificationRequest) OperationResult[T] {
	return OperationResult[T]{Entity: entity, Events: events}
}

func notFound(message string) error {
	return appErrors.Clone(appErrors.ErrNotFound, message)
}

func forbidden(message string) error {
	return appErrors.Clone(appErrors.ErrForbidden, message)
}

func invalid(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func conflict(message string) error {
	return appErrors.Clone(appErrors.ErrConflict, message)
}

// lookup maps a missing row to a typed 404 and passes other errors through.
func lookup(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(message)
	}
	return err
}

func requireActor(actor policy.Actor) error {
	if !actor.IsAuthenticated() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}

// courseGate centralises the course-scoped access rules shared by lessons,
// assignments, quizzes, submissions and discussions.
type courseGate struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
}

func (g courseGate) load(ctx context.Context, courseID string) (models.Course, error) {
	course, err := g.courses.GetByID(ctx, courseID)
	if err != nil {
		return models.Course{}, lookup(err, "course not found")
	}
	return course, nil
}

// manage loads the course and requires CanManage on it.
func (g courseGate) manage(ctx context.Context, actor policy.Actor, courseID string) (models.Course, error) {
	if err := requireActor(actor); err != nil {
		return models.Course{}, err
	}
	course, err := g.load(ctx, courseID)
	if err != nil {
		return models.Course{}, err
	}
	if !policy.CanManage(actor, course) {
		return models.Course{}, forbidden("you do not manage this course")
	}
	return course, nil
}

// enrollment returns the actor's enrollment in the course, or a 403 when absent.
func (g courseGate) enrollment(ctx context.Context, actor policy.Actor, courseID string) (models.Enrollment, error) {
	enrollment, err := g.enrollments.GetByUserAndCourse(ctx, actor.ID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, forbidden("not enrolled in this course")
		}
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// participate admits course managers and enrolled users.
func (g courseGate) participate(ctx context.Context, actor policy.Actor, courseID string) (models.Course, bool, error) {
	if err := requireActor(actor); err != nil {
		return models.Course{}, false, err
	}
	course, err := g.load(ctx, courseID)
	if err != nil {
		return models.Course{}, false, err
	}
	if policy.CanManage(actor, course) {
		return course, true, nil
	}
	if _, err := g.enrollment(ctx, actor, courseID); err != nil {
		return models.Course{}, false, err
	}
	return course, false, nil
}
