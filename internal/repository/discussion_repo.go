package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// DiscussionRepository persists course discussion posts and comments.
type DiscussionRepository interface {
	ListPosts(ctx context.Context, courseID string, page, pageSize int) ([]models.DiscussionPost, int64, error)
	GetPost(ctx context.Context, id string) (models.DiscussionPost, error)
	CreatePost(ctx context.Context, post *models.DiscussionPost) error
	UpdatePost(ctx context.Context, post *models.DiscussionPost) error
	DeletePost(ctx context.Context, id string) error

	ListComments(ctx context.Context, postID string) ([]models.DiscussionComment, error)
	GetComment(ctx context.Context, id string) (models.DiscussionComment, error)
	CreateComment(ctx context.Context, comment *models.DiscussionComment) error
	UpdateComment(ctx context.Context, comment *models.DiscussionComment) error
	DeleteComment(ctx context.Context, id string) error
}

type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository constructs the discussion repository.
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) ListPosts(ctx context.Context, courseID string, page, pageSize int) ([]models.DiscussionPost, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DiscussionPost{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.DiscussionPost
	if err := paginate(query, page, pageSize).
		Order("is_pinned DESC").
		Order("updated_at DESC").
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *discussionRepository) GetPost(ctx context.Context, id string) (models.DiscussionPost, error) {
	var post models.DiscussionPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return models.DiscussionPost{}, err
	}
	return post, nil
}

func (r *discussionRepository) CreatePost(ctx context.Context, post *models.DiscussionPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *discussionRepository) UpdatePost(ctx context.Context, post *models.DiscussionPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *discussionRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.DiscussionComment{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.DiscussionPost{}, id)
	})
}

func (r *discussionRepository) ListComments(ctx context.Context, postID string) ([]models.DiscussionComment, error) {
	var comments []models.DiscussionComment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *discussionRepository) GetComment(ctx context.Context, id string) (models.DiscussionComment, error) {
	var comment models.DiscussionComment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return models.DiscussionComment{}, err
	}
	return comment, nil
}

// CreateComment inserts the comment and bumps the post's updated_at so active threads sort first.
func (r *discussionRepository) CreateComment(ctx context.Context, comment *models.DiscussionComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.DiscussionPost{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("updated_at", comment.CreatedAt).
			Error
	})
}

func (r *discussionRepository) UpdateComment(ctx context.Context, comment *models.DiscussionComment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

// DeleteComment removes the comment and its direct replies.
func (r *discussionRepository) DeleteComment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&models.DiscussionComment{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &models.DiscussionComment{}, id)
	})
}
