package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// EnrollmentCreateRequest enrolls the caller into a course.
type EnrollmentCreateRequest struct {
	CourseID string `json:"course_id" validate:"required,max=64"`
}

// EnrollmentResponse serializes an enrollment with its progress.
type EnrollmentResponse struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	CourseID           string          `json:"course_id"`
	Status             string          `json:"status"`
	Progress           int             `json:"progress"`
	CompletedLessons   int             `json:"completed_lessons"`
	CompletedLessonIDs []string        `json:"completed_lesson_ids,omitempty"`
	TotalLessons       int             `json:"total_lessons"`
	CompletedAt        *time.Time      `json:"completed_at"`
	LastAccessedAt     *time.Time      `json:"last_accessed_at"`
	CreatedAt          time.Time       `json:"created_at"`
	Course             *CourseResponse `json:"course,omitempty"`
}

// NewEnrollmentResponse converts an enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	response := EnrollmentResponse{
		ID:               model.ID,
		UserID:           model.UserID,
		CourseID:         model.CourseID,
		Status:           model.Status,
		Progress:         model.Progress,
		CompletedLessons: model.CompletedLessons,
		TotalLessons:     model.TotalLessons,
		CompletedAt:      model.CompletedAt,
		LastAccessedAt:   model.LastAccessedAt,
		CreatedAt:        model.CreatedAt,
	}
	if model.Course != nil && model.Course.ID != "" {
		course := NewCourseResponse(*model.Course)
		response.Course = &course
	}
	return response
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(items []models.Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewEnrollmentResponse(item))
	}
	return out
}
