package models

import "time"

// Course statuses.
const (
	CourseStatusDraft    = "draft"
	CourseStatusPending  = "pending"
	CourseStatusApproved = "approved"
	CourseStatusRejected = "rejected"
	CourseStatusArchived = "archived"
)

// Course is owned by exactly one instructor and moves through a review workflow.
type Course struct {
	Base
	InstructorID    string     `gorm:"type:varchar(36);not null;index" json:"instructor_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Category        string     `gorm:"size:128;index" json:"category"`
	Level           string     `gorm:"size:32" json:"level"`
	Price           float64    `gorm:"not null;default:0" json:"price"`
	ThumbnailURL    string     `gorm:"size:512" json:"thumbnail_url"`
	Status          string     `gorm:"size:32;not null;index" json:"status"`
	IsApproved      bool       `gorm:"not null;default:false" json:"is_approved"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	Instructor      *User      `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
}

// OwnerID implements policy.Owned.
func (c Course) OwnerID() string {
	return c.InstructorID
}

// IsPublic reports whether the course is visible in the public catalog.
func (c Course) IsPublic() bool {
	return c.Status == CourseStatusApproved
}

// IsEditable reports whether the owner may still submit the course for review.
func (c Course) IsEditable() bool {
	return c.Status == CourseStatusDraft || c.Status == CourseStatusRejected
}

// Lesson is a unit of content inside a course.
type Lesson struct {
	Base
	CourseID  string `gorm:"type:varchar(36);not null;index" json:"course_id"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Content   string `gorm:"type:text" json:"content"`
	VideoURL  string `gorm:"size:512" json:"video_url"`
	Order     int    `gorm:"column:position;not null;default:0" json:"order"`
	Duration  int    `gorm:"not null;default:0" json:"duration"`
	IsPreview bool   `gorm:"not null;default:false" json:"is_preview"`
}
