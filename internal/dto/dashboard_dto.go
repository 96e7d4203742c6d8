package dto

import "time"

// StudentDashboardResponse aggregates course progress and coursework for a student.
type StudentDashboardResponse struct {
	Summary           ProgressSummary      `json:"summary"`
	Courses           []CourseProgress     `json:"courses"`
	Pending           []AssignmentProgress `json:"pending_assignments"`
	RecentSubmissions []SubmissionActivity `json:"recent_submissions"`
	CacheHit          bool                 `json:"cache_hit"`
}

// ProgressSummary captures aggregated statistics for the dashboard.
type ProgressSummary struct {
	EnrolledCourses  int     `json:"enrolled_courses"`
	CompletedCourses int     `json:"completed_courses"`
	TotalAssignments int     `json:"total_assignments"`
	Submitted        int     `json:"submitted"`
	Graded           int     `json:"graded"`
	Pending          int     `json:"pending"`
	Overdue          int     `json:"overdue"`
	AverageGrade     float64 `json:"average_grade"`
	AverageProgress  float64 `json:"average_progress"`
}

// CourseProgress is a single enrollment row on the dashboard.
type CourseProgress struct {
	EnrollmentID string `json:"enrollment_id"`
	CourseID     string `json:"course_id"`
	Title        string `json:"title"`
	Progress     int    `json:"progress"`
	Status       string `json:"status"`
}

// AssignmentProgress describes the state of a single assignment relative to a student.
type AssignmentProgress struct {
	AssignmentID string     `json:"assignment_id"`
	CourseID     string     `json:"course_id"`
	Title        string     `json:"title"`
	DueDate      *time.Time `json:"due_date"`
	Status       string     `json:"status"`
	SubmissionID *string    `json:"submission_id"`
	Overdue      bool       `json:"overdue"`
}

// SubmissionActivity details recent submission events for the dashboard.
type SubmissionActivity struct {
	SubmissionID   string    `json:"submission_id"`
	AssignmentID   string    `json:"assignment_id"`
	AssignmentName string    `json:"assignment_name"`
	Status         string    `json:"status"`
	Grade          *float64  `json:"grade"`
	Feedback       string    `json:"feedback"`
	UpdatedAt      time.Time `json:"updated_at"`
}
