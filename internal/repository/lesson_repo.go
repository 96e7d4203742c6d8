package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// LessonRepository persists lessons.
type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id string) (models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	NextOrder(ctx context.Context, courseID string) (int, error)
	Reorder(ctx context.Context, courseID string, lessonIDs []string) error
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository constructs a GORM-backed lesson repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepository) GetByID(ctx context.Context, id string) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lesson).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Save(lesson).Error
}

func (r *lessonRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.LessonCompletion{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Lesson{}, id)
	})
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepository) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *lessonRepository) NextOrder(ctx context.Context, courseID string) (int, error) {
	var maxOrder int
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}

func (r *lessonRepository) Reorder(ctx context.Context, courseID string, lessonIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for index, id := range lessonIDs {
			result := tx.Model(&models.Lesson{}).
				Where("id = ? AND course_id = ?", id, courseID).
				Update("position", index+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}
