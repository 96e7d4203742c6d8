package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz is a set of multiple-choice questions attached to a course.
type Quiz struct {
	Base
	CourseID         string     `gorm:"type:varchar(36);not null;index" json:"course_id"`
	InstructorID     string     `gorm:"type:varchar(36);not null;index" json:"instructor_id"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	TimeLimitMinutes int        `gorm:"not null;default:0" json:"time_limit_minutes"`
	AttemptsAllowed  int        `gorm:"not null;default:1" json:"attempts_allowed"`
	PassingScore     float64    `gorm:"not null;default:0" json:"passing_score"`
	IsPublished      bool       `gorm:"not null;default:false" json:"is_published"`
	Questions        []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

// OwnerID implements policy.Owned.
func (q Quiz) OwnerID() string {
	return q.InstructorID
}

// Question is a single multiple-choice item. CorrectOptionIndex points into Options.
type Question struct {
	Base
	QuizID             string                      `gorm:"type:varchar(36);not null;index" json:"quiz_id"`
	Text               string                      `gorm:"type:text;not null" json:"text"`
	Options            datatypes.JSONSlice[string] `json:"options"`
	CorrectOptionIndex int                         `gorm:"not null" json:"correct_option_index"`
	Points             int                         `gorm:"not null;default:1" json:"points"`
	Order              int                         `gorm:"column:position;not null;default:0" json:"order"`
}

// AttemptAnswer is the option a student picked for one question.
type AttemptAnswer struct {
	QuestionID          string `json:"question_id"`
	SelectedOptionIndex int    `json:"selected_option_index"`
	Correct             bool   `json:"correct"`
}

// QuizAttempt is one scored submission of a quiz. AttemptNumber starts at 1.
type QuizAttempt struct {
	Base
	QuizID          string                             `gorm:"type:varchar(36);not null;uniqueIndex:idx_quiz_attempts_quiz_student_number" json:"quiz_id"`
	StudentID       string                             `gorm:"type:varchar(36);not null;uniqueIndex:idx_quiz_attempts_quiz_student_number;index" json:"student_id"`
	AttemptNumber   int                                `gorm:"not null;uniqueIndex:idx_quiz_attempts_quiz_student_number" json:"attempt_number"`
	Answers         datatypes.JSONSlice[AttemptAnswer] `json:"answers"`
	Score           int                                `gorm:"not null" json:"score"`
	TotalQuestions  int                                `gorm:"not null" json:"total_questions"`
	PercentageScore float64                            `gorm:"not null" json:"percentage_score"`
	Passed          bool                               `gorm:"not null" json:"passed"`
	SubmittedAt     time.Time                          `gorm:"not null" json:"submitted_at"`
}
