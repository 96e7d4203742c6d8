package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// AssignmentCreateRequest describes the payload for a new assignment.
type AssignmentCreateRequest struct {
	CourseID      string     `json:"course_id" validate:"required,max=64"`
	Title         string     `json:"title" validate:"required,min=3,max=255"`
	Description   string     `json:"description" validate:"omitempty,max=10000"`
	DueDate       *time.Time `json:"due_date"`
	MaxPoints     int        `json:"max_points" validate:"omitempty,gt=0,lte=1000"`
	AttachmentURL string     `json:"attachment_url" validate:"omitempty,url,max=512"`
}

// AssignmentUpdateRequest updates mutable assignment fields.
type AssignmentUpdateRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description   *string    `json:"description" validate:"omitempty,max=10000"`
	DueDate       *time.Time `json:"due_date"`
	MaxPoints     *int       `json:"max_points" validate:"omitempty,gt=0,lte=1000"`
	AttachmentURL *string    `json:"attachment_url" validate:"omitempty,url,max=512"`
}

// AssignmentResponse serializes an assignment.
type AssignmentResponse struct {
	ID            string     `json:"id"`
	CourseID      string     `json:"course_id"`
	InstructorID  string     `json:"instructor_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"due_date"`
	MaxPoints     int        `json:"max_points"`
	AttachmentURL string     `json:"attachment_url"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewAssignmentResponse converts an assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		InstructorID:  model.InstructorID,
		Title:         model.Title,
		Description:   model.Description,
		DueDate:       model.DueDate,
		MaxPoints:     model.MaxPoints,
		AttachmentURL: model.AttachmentURL,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(items []models.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAssignmentResponse(item))
	}
	return out
}
