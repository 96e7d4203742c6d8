package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// DiscussionPostCreateRequest is the payload to open a thread in a course.
type DiscussionPostCreateRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// DiscussionPostUpdateRequest updates an existing post.
type DiscussionPostUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=3,max=255"`
	Content  *string `json:"content" validate:"omitempty,min=1,max=10000"`
	IsPinned *bool   `json:"is_pinned"`
}

// DiscussionCommentCreateRequest creates a comment, optionally replying to another comment.
type DiscussionCommentCreateRequest struct {
	Content  string  `json:"content" validate:"required,min=1,max=5000"`
	ParentID *string `json:"parent_id" validate:"omitempty,max=64"`
}

// DiscussionCommentUpdateRequest edits a comment.
type DiscussionCommentUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// DiscussionPostResponse describes a post returned by the API.
type DiscussionPostResponse struct {
	ID        string                      `json:"id"`
	CourseID  string                      `json:"course_id"`
	AuthorID  string                      `json:"author_id"`
	Title     string                      `json:"title"`
	Content   string                      `json:"content"`
	IsPinned  bool                        `json:"is_pinned"`
	Likes     []string                    `json:"likes"`
	LikeCount int                         `json:"like_count"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	Comments  []DiscussionCommentResponse `json:"comments,omitempty"`
}

// DiscussionCommentResponse describes a serialized comment.
type DiscussionCommentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id"`
	Content   string    `json:"content"`
	Likes     []string  `json:"likes"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LikeResponse reports the outcome of a like toggle.
type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func likeSet(likes []string) []string {
	out := make([]string, 0, len(likes))
	return append(out, likes...)
}

// NewDiscussionPostResponse converts a post model into a DTO.
func NewDiscussionPostResponse(model models.DiscussionPost) DiscussionPostResponse {
	return DiscussionPostResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		AuthorID:  model.AuthorID,
		Title:     model.Title,
		Content:   model.Content,
		IsPinned:  model.IsPinned,
		Likes:     likeSet(model.Likes),
		LikeCount: len(model.Likes),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewDiscussionPostResponseSlice converts posts to DTOs.
func NewDiscussionPostResponseSlice(items []models.DiscussionPost) []DiscussionPostResponse {
	out := make([]DiscussionPostResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewDiscussionPostResponse(item))
	}
	return out
}

// NewDiscussionCommentResponse converts a comment model into a DTO.
func NewDiscussionCommentResponse(model models.DiscussionComment) DiscussionCommentResponse {
	return DiscussionCommentResponse{
		ID:        model.ID,
		PostID:    model.PostID,
		AuthorID:  model.AuthorID,
		ParentID:  model.ParentID,
		Content:   model.Content,
		Likes:     likeSet(model.Likes),
		LikeCount: len(model.Likes),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewDiscussionCommentResponseSlice converts comments to DTOs.
func NewDiscussionCommentResponseSlice(items []models.DiscussionComment) []DiscussionCommentResponse {
	out := make([]DiscussionCommentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewDiscussionCommentResponse(item))
	}
	return out
}

// DiscussionPostListResponse wraps a page of posts.
type DiscussionPostListResponse struct {
	Items      []DiscussionPostResponse `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
}
