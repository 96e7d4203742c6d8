package models

import "time"

// User statuses.
const (
	UserStatusActive              = "active"
	UserStatusInactive            = "inactive"
	UserStatusSuspended           = "suspended"
	UserStatusPendingApproval     = "pending_approval"
	UserStatusRejectedApplication = "rejected_application"
)

// User is an account holder. Role is fixed at creation and only changed by an admin.
type User struct {
	Base
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:32;not null;index" json:"role"`
	Status       string     `gorm:"size:32;not null;index" json:"status"`
	Bio          string     `gorm:"type:text" json:"bio"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// CanSignIn reports whether the account status permits authentication.
func (u User) CanSignIn() bool {
	switch u.Status {
	case UserStatusActive, UserStatusPendingApproval:
		return true
	default:
		return false
	}
}

// ValidUserStatus reports whether status is a known account status.
func ValidUserStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusPendingApproval, UserStatusRejectedApplication:
		return true
	default:
		return false
	}
}
