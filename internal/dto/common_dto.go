package dto

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta computes page counts for a total item count.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages}
}

// NotificationRequest is a notification produced by a state change and dispatched after the write.
type NotificationRequest struct {
	UserID      string `json:"user_id" validate:"required,max=64"`
	Type        string `json:"type" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,max=255"`
	Message     string `json:"message" validate:"required,min=1,max=2000"`
	RelatedType string `json:"related_type" validate:"omitempty,max=64"`
	RelatedID   string `json:"related_id" validate:"omitempty,max=64"`
}
