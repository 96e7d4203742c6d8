package models

import "time"

const (
	// SubmissionStatusPending indicates the submission awaits grading.
	SubmissionStatusPending = "pending"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusReturned indicates the instructor sent the work back for revision.
	SubmissionStatusReturned = "returned"
	// SubmissionStatusLate indicates the work arrived after the due date and awaits grading.
	SubmissionStatusLate = "late"
)

// Submission is a student's delivered work for an assignment. One row per (assignment, student).
type Submission struct {
	Base
	AssignmentID string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID    string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_submissions_assignment_student;index" json:"student_id"`
	CourseID     string      `gorm:"type:varchar(36);not null;index" json:"course_id"`
	Content      string      `gorm:"type:text" json:"content"`
	FileURL      string      `gorm:"size:512" json:"file_url"`
	Status       string      `gorm:"size:32;not null;index" json:"status"`
	Grade        *float64    `json:"grade"`
	Feedback     string      `gorm:"type:text" json:"feedback"`
	GradedBy     *string     `gorm:"type:varchar(36)" json:"graded_by"`
	GradedAt     *time.Time  `json:"graded_at"`
	SubmittedAt  time.Time   `gorm:"not null" json:"submitted_at"`
	Assignment   *Assignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
	Student      *User       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SubmissionGradeHistory keeps every grade written for a submission.
type SubmissionGradeHistory struct {
	Base
	SubmissionID string    `gorm:"type:varchar(36);not null;index" json:"submission_id"`
	Score        float64   `gorm:"not null" json:"score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	GradedBy     string    `gorm:"type:varchar(36);not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}
