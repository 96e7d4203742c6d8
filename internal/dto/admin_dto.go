package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// AdminActivityListRequest defines filters for retrieving activity logs.
// Since is an RFC 3339 timestamp.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Since      string
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID         string                 `json:"id"`
	ActorID    string                 `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *string                `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// AdminOverviewResponse aggregates platform counters for administrators.
type AdminOverviewResponse struct {
	UsersByRole         map[string]int64 `json:"users_by_role"`
	CoursesByStatus     map[string]int64 `json:"courses_by_status"`
	Enrollments         int64            `json:"enrollments"`
	CompletedEnrollment int64            `json:"completed_enrollments"`
	PendingSubmissions  int64            `json:"pending_submissions"`
	PendingInstructors  int64            `json:"pending_instructors"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewAdminActivityResponse converts a model into an activity DTO.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}

// NewAdminActivityResponseSlice converts activity entries into DTOs.
func NewAdminActivityResponseSlice(items []models.ActivityLog) []AdminActivityResponse {
	out := make([]AdminActivityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAdminActivityResponse(item))
	}
	return out
}
