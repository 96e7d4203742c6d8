package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// QuizRepository persists quizzes, their questions and scored attempts.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id string) (models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]models.Quiz, error)

	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id string) (models.Question, error)
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, id string) error

	CountAttempts(ctx context.Context, quizID, studentID string) (int64, error)
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	ListAttempts(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository constructs a GORM-backed quiz repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("created_at ASC")
}

// Create inserts the quiz together with any questions attached to it.
func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := quiz.Questions
		quiz.Questions = nil
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		quiz.Questions = questions
		return nil
	})
}

func (r *quizRepository) GetByID(ctx context.Context, id string) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("id = ?", id).
		First(&quiz).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(quiz).Error
}

func (r *quizRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.Quiz{}, id)
	})
}

func (r *quizRepository) ListByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]models.Quiz, error) {
	query := r.db.WithContext(ctx).Preload("Questions", orderedQuestions).Where("course_id = ?", courseID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	var quizzes []models.Quiz
	if err := query.Order("created_at ASC").Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *quizRepository) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *quizRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *quizRepository) DeleteQuestion(ctx context.Context, id string) error {
	return deleteByID(r.db.WithContext(ctx), &models.Question{}, id)
}

func (r *quizRepository) CountAttempts(ctx context.Context, quizID, studentID string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CreateAttempt inserts a scored attempt. The (quiz_id, student_id, attempt_number) unique
// index rejects concurrent inserts that computed the same attempt number.
func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *quizRepository) ListAttempts(ctx context.Context, quizID, studentID string) ([]models.QuizAttempt, error) {
	query := r.db.WithContext(ctx).Where("quiz_id = ?", quizID)
	if studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	var attempts []models.QuizAttempt
	if err := query.Order("student_id ASC").Order("attempt_number ASC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
