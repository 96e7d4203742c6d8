package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// CourseCreateRequest captures the payload for a new course.
type CourseCreateRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=10000"`
	Category     string  `json:"category" validate:"omitempty,max=128"`
	Level        string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price        float64 `json:"price" validate:"gte=0"`
	ThumbnailURL string  `json:"thumbnail_url" validate:"omitempty,url,max=512"`
}

// CourseUpdateRequest updates mutable course fields.
type CourseUpdateRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string  `json:"description" validate:"omitempty,max=10000"`
	Category     *string  `json:"category" validate:"omitempty,max=128"`
	Level        *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	ThumbnailURL *string  `json:"thumbnail_url" validate:"omitempty,url,max=512"`
}

// CourseRejectRequest carries the optional rejection reason.
type CourseRejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,min=3,max=2000"`
}

// CourseListRequest filters course listings.
type CourseListRequest struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Category string `json:"category"`
	Level    string `json:"level"`
	Status   string `json:"status"`
}

// CourseResponse serializes a course.
type CourseResponse struct {
	ID              string     `json:"id"`
	InstructorID    string     `json:"instructor_id"`
	InstructorName  string     `json:"instructor_name,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Level           string     `json:"level"`
	Price           float64    `json:"price"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	Status          string     `json:"status"`
	IsApproved      bool       `json:"is_approved"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CourseListResponse wraps a page of courses.
type CourseListResponse struct {
	Items      []CourseResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
	CacheHit   bool             `json:"cache_hit"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	response := CourseResponse{
		ID:              model.ID,
		InstructorID:    model.InstructorID,
		Title:           model.Title,
		Description:     model.Description,
		Category:        model.Category,
		Level:           model.Level,
		Price:           model.Price,
		ThumbnailURL:    model.ThumbnailURL,
		Status:          model.Status,
		IsApproved:      model.IsApproved,
		RejectionReason: model.RejectionReason,
		SubmittedAt:     model.SubmittedAt,
		ApprovedAt:      model.ApprovedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	if model.Instructor != nil {
		response.InstructorName = model.Instructor.Name
	}
	return response
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(items []models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCourseResponse(item))
	}
	return out
}

// LessonCreateRequest captures the payload for a new lesson.
type LessonCreateRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=255"`
	Content   string `json:"content" validate:"omitempty,max=100000"`
	VideoURL  string `json:"video_url" validate:"omitempty,url,max=512"`
	Order     *int   `json:"order" validate:"omitempty,gte=0"`
	Duration  int    `json:"duration" validate:"gte=0"`
	IsPreview bool   `json:"is_preview"`
}

// LessonUpdateRequest updates mutable lesson fields.
type LessonUpdateRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=3,max=255"`
	Content   *string `json:"content" validate:"omitempty,max=100000"`
	VideoURL  *string `json:"video_url" validate:"omitempty,url,max=512"`
	Order     *int    `json:"order" validate:"omitempty,gte=0"`
	Duration  *int    `json:"duration" validate:"omitempty,gte=0"`
	IsPreview *bool   `json:"is_preview"`
}

// LessonReorderRequest lists lesson ids in their new order.
type LessonReorderRequest struct {
	LessonIDs []string `json:"lesson_ids" validate:"required,min=1,dive,required"`
}

// LessonResponse serializes a lesson.
type LessonResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	VideoURL  string    `json:"video_url"`
	Order     int       `json:"order"`
	Duration  int       `json:"duration"`
	IsPreview bool      `json:"is_preview"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLessonResponse converts a lesson model into a DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		Title:     model.Title,
		Content:   model.Content,
		VideoURL:  model.VideoURL,
		Order:     model.Order,
		Duration:  model.Duration,
		IsPreview: model.IsPreview,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewLessonResponseSlice converts lesson models into DTOs.
func NewLessonResponseSlice(items []models.Lesson) []LessonResponse {
	out := make([]LessonResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewLessonResponse(item))
	}
	return out
}
