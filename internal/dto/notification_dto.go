package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// NotificationListRequest filters the caller's notifications.
type NotificationListRequest struct {
	Page       int
	PageSize   int
	UnreadOnly bool
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	RelatedType string     `json:"related_type,omitempty"`
	RelatedID   string     `json:"related_id,omitempty"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NotificationListResponse wraps a page of notifications.
type NotificationListResponse struct {
	Items      []NotificationResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}

// UnreadCountResponse reports how many notifications are unread.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse reports how many notifications were flipped to read.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          model.ID,
		UserID:      model.UserID,
		Type:        model.Type,
		Title:       model.Title,
		Message:     model.Message,
		RelatedType: model.RelatedType,
		RelatedID:   model.RelatedID,
		IsRead:      model.IsRead,
		ReadAt:      model.ReadAt,
		CreatedAt:   model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
