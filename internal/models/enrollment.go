package models

import "time"

// Enrollment statuses.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment links a student to a course and tracks completion.
type Enrollment struct {
	Base
	UserID           string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID         string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_enrollments_user_course;index" json:"course_id"`
	Status           string     `gorm:"size:32;not null" json:"status"`
	Progress         int        `gorm:"not null;default:0" json:"progress"`
	CompletedLessons int        `gorm:"not null;default:0" json:"completed_lessons"`
	TotalLessons     int        `gorm:"not null;default:0" json:"total_lessons"`
	CompletedAt      *time.Time `json:"completed_at"`
	LastAccessedAt   *time.Time `json:"last_accessed_at"`
	Course           *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// OwnerID implements policy.Owned.
func (e Enrollment) OwnerID() string {
	return e.UserID
}

// IsComplete reports whether every lesson has been completed.
func (e Enrollment) IsComplete() bool {
	return e.Progress >= 100
}

// LessonCompletion records that a lesson was completed within an enrollment.
type LessonCompletion struct {
	Base
	EnrollmentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_lesson_completions_enrollment_lesson" json:"enrollment_id"`
	LessonID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_lesson_completions_enrollment_lesson" json:"lesson_id"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`
}
