package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// RegisterRequest is the public sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required"`
	Bio      string `json:"bio" validate:"omitempty,max=2000"`
}

// LoginRequest authenticates an existing account. Role is optional and must match when present.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

// AuthResponse returns the issued token with the account profile.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse serializes a user without credentials.
type UserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Bio         string     `json:"bio"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:          model.ID,
		Name:        model.Name,
		Email:       model.Email,
		Role:        model.Role,
		Status:      model.Status,
		Bio:         model.Bio,
		LastLoginAt: model.LastLoginAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewUserResponseSlice converts user models into DTOs.
func NewUserResponseSlice(items []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewUserResponse(item))
	}
	return out
}

// UserListRequest filters the admin user listing.
type UserListRequest struct {
	Page     int
	PageSize int
	Role     string
	Status   string
	Search   string
}

// UserListResponse wraps a page of users.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// UserCreateRequest lets an admin create an account of any role.
type UserCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=student instructor admin"`
	Bio      string `json:"bio" validate:"omitempty,max=2000"`
}

// UserRoleUpdateRequest changes a user's role.
type UserRoleUpdateRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// UserStatusUpdateRequest changes a user's account status.
type UserStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended pending_approval rejected_application"`
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}
