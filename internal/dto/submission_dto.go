package dto

import (
	"io"
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// SubmissionFile is an uploaded attachment handed to the submission service.
type SubmissionFile struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// SubmissionCreateRequest describes the payload for a student's submission.
type SubmissionCreateRequest struct {
	Content string          `json:"content" form:"content" validate:"omitempty,max=50000"`
	File    *SubmissionFile `json:"-" form:"-"`
}

// GradeSubmissionRequest grades a submission. Grade is on a 0..100 scale.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string   `json:"feedback" validate:"omitempty,max=5000"`
}

// ReturnSubmissionRequest sends a submission back for revision.
type ReturnSubmissionRequest struct {
	Feedback string `json:"feedback" validate:"required,min=3,max=5000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           string                           `json:"id"`
	AssignmentID string                           `json:"assignment_id"`
	StudentID    string                           `json:"student_id"`
	CourseID     string                           `json:"course_id"`
	Content      string                           `json:"content"`
	FileURL      string                           `json:"file_url"`
	Status       string                           `json:"status"`
	Grade        *float64                         `json:"grade"`
	Feedback     string                           `json:"feedback"`
	GradedBy     *string                          `json:"graded_by"`
	GradedAt     *time.Time                       `json:"graded_at"`
	SubmittedAt  time.Time                        `json:"submitted_at"`
	History      []SubmissionGradeHistoryResponse `json:"history,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
	Assignment   *AssignmentLite                  `json:"assignment,omitempty"`
	Student      *StudentLite                     `json:"student,omitempty"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	DueDate *time.Time `json:"due_date"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	Score    float64   `json:"score"`
	Feedback string    `json:"feedback"`
	GradedBy string    `json:"graded_by"`
	GradedAt time.Time `json:"graded_at"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		CourseID:     model.CourseID,
		Content:      model.Content,
		FileURL:      model.FileURL,
		Status:       model.Status,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		SubmittedAt:  model.SubmittedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment != nil && model.Assignment.ID != "" {
		response.Assignment = &AssignmentLite{
			ID:      model.Assignment.ID,
			Title:   model.Assignment.Title,
			DueDate: model.Assignment.DueDate,
		}
	}

	if model.Student != nil && model.Student.ID != "" {
		response.Student = &StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// WithHistory attaches grade history entries to the response.
func (r SubmissionResponse) WithHistory(entries []models.SubmissionGradeHistory) SubmissionResponse {
	if len(entries) == 0 {
		return r
	}
	history := make([]SubmissionGradeHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, SubmissionGradeHistoryResponse{
			Score:    entry.Score,
			Feedback: entry.Feedback,
			GradedBy: entry.GradedBy,
			GradedAt: entry.GradedAt,
		})
	}
	r.History = history
	return r
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
