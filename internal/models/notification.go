package models

import "time"

// Notification types.
const (
	NotificationEnrollment        = "enrollment"
	NotificationGrade             = "grade"
	NotificationCourseApproved    = "course_approved"
	NotificationCourseRejected    = "course_rejected"
	NotificationSubmissionReturn  = "submission_returned"
	NotificationComment           = "comment"
	NotificationReply             = "reply"
	NotificationMention           = "mention"
	NotificationAccountStatus     = "account_status"
	NotificationCourseCompleted   = "course_completed"
	NotificationAssignmentCreated = "assignment_created"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	Base
	UserID      string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Type        string     `gorm:"size:64;not null" json:"type"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	RelatedType string     `gorm:"size:64" json:"related_type"`
	RelatedID   string     `gorm:"type:varchar(36)" json:"related_id"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`
}
