package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// EnrollmentRepository persists enrollments and their lesson completion set.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (models.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID string) (models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	AddCompletion(ctx context.Context, completion *models.LessonCompletion) error
	CountCompletions(ctx context.Context, enrollmentID string) (int64, error)
	CompletedLessonIDs(ctx context.Context, enrollmentID string) ([]string, error)
	Count(ctx context.Context, status string) (int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs a GORM-backed enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Create inserts the enrollment. A second row for the same (user, course) fails with a unique violation.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).Preload("Course").Where("id = ?", id).First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(enrollment).Error
}

func (r *enrollmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("enrollment_id = ?", id).Delete(&models.LessonCompletion{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Enrollment{}, id)
	})
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// AddCompletion inserts a completion row. A repeat for the same lesson fails with a unique violation.
func (r *enrollmentRepository) AddCompletion(ctx context.Context, completion *models.LessonCompletion) error {
	return r.db.WithContext(ctx).Create(completion).Error
}

func (r *enrollmentRepository) CountCompletions(ctx context.Context, enrollmentID string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Where("lesson_completions.enrollment_id = ?", enrollmentID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *enrollmentRepository) CompletedLessonIDs(ctx context.Context, enrollmentID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.LessonCompletion{}).
		Where("enrollment_id = ?", enrollmentID).
		Order("completed_at ASC").
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *enrollmentRepository) Count(ctx context.Context, status string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Enrollment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
