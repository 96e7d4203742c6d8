package models

import "time"

// Assignment is a piece of graded work attached to a course.
type Assignment struct {
	Base
	CourseID      string     `gorm:"type:varchar(36);not null;index" json:"course_id"`
	InstructorID  string     `gorm:"type:varchar(36);not null;index" json:"instructor_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	DueDate       *time.Time `json:"due_date"`
	MaxPoints     int        `gorm:"not null;default:100" json:"max_points"`
	AttachmentURL string     `gorm:"size:512" json:"attachment_url"`
}

// OwnerID implements policy.Owned.
func (a Assignment) OwnerID() string {
	return a.InstructorID
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
