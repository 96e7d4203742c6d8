package models

import "gorm.io/datatypes"

// DiscussionPost is a top-level thread inside a course forum.
type DiscussionPost struct {
	Base
	CourseID string                      `gorm:"type:varchar(36);not null;index" json:"course_id"`
	AuthorID string                      `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Title    string                      `gorm:"size:255;not null" json:"title"`
	Content  string                      `gorm:"type:text;not null" json:"content"`
	IsPinned bool                        `gorm:"not null;default:false" json:"is_pinned"`
	Likes    datatypes.JSONSlice[string] `json:"likes"`
}

// OwnerID implements policy.Owned.
func (p DiscussionPost) OwnerID() string {
	return p.AuthorID
}

// DiscussionComment belongs to a post and may reply to another comment through ParentID.
type DiscussionComment struct {
	Base
	PostID   string                      `gorm:"type:varchar(36);not null;index" json:"post_id"`
	CourseID string                      `gorm:"type:varchar(36);not null;index" json:"course_id"`
	AuthorID string                      `gorm:"type:varchar(36);not null;index" json:"author_id"`
	ParentID *string                     `gorm:"type:varchar(36);index" json:"parent_id"`
	Content  string                      `gorm:"type:text;not null" json:"content"`
	Likes    datatypes.JSONSlice[string] `json:"likes"`
}

// OwnerID implements policy.Owned.
func (c DiscussionComment) OwnerID() string {
	return c.AuthorID
}

// ToggleLike adds userID to likes when absent and removes it when present.
// It returns the new set and whether the user now likes the item.
func ToggleLike(likes []string, userID string) ([]string, bool) {
	out := make([]string, 0, len(likes)+1)
	found := false
	for _, id := range likes {
		if id == userID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if found {
		return out, false
	}
	return append(out, userID), true
}
