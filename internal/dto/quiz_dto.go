package dto

import (
	"time"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// QuizCreateRequest describes the payload for a new quiz.
type QuizCreateRequest struct {
	CourseID         string                  `json:"course_id" validate:"required,max=64"`
	Title            string                  `json:"title" validate:"required,min=3,max=255"`
	Description      string                  `json:"description" validate:"omitempty,max=10000"`
	TimeLimitMinutes int                     `json:"time_limit_minutes" validate:"gte=0"`
	AttemptsAllowed  int                     `json:"attempts_allowed" validate:"omitempty,gte=1,lte=100"`
	PassingScore     float64                 `json:"passing_score" validate:"gte=0,lte=100"`
	IsPublished      bool                    `json:"is_published"`
	Questions        []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// QuizUpdateRequest updates mutable quiz fields.
type QuizUpdateRequest struct {
	Title            *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description      *string  `json:"description" validate:"omitempty,max=10000"`
	TimeLimitMinutes *int     `json:"time_limit_minutes" validate:"omitempty,gte=0"`
	AttemptsAllowed  *int     `json:"attempts_allowed" validate:"omitempty,gte=1,lte=100"`
	PassingScore     *float64 `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	IsPublished      *bool    `json:"is_published"`
}

// QuestionCreateRequest describes a single multiple-choice question.
type QuestionCreateRequest struct {
	Text               string   `json:"text" validate:"required,min=1,max=5000"`
	Options            []string `json:"options" validate:"required,min=2,max=10,dive,required,max=1000"`
	CorrectOptionIndex int      `json:"correct_option_index" validate:"gte=0"`
	Points             int      `json:"points" validate:"omitempty,gt=0"`
	Order              *int     `json:"order" validate:"omitempty,gte=0"`
}

// QuestionUpdateRequest updates a question.
type QuestionUpdateRequest struct {
	Text               *string  `json:"text" validate:"omitempty,min=1,max=5000"`
	Options            []string `json:"options" validate:"omitempty,min=2,max=10,dive,required,max=1000"`
	CorrectOptionIndex *int     `json:"correct_option_index" validate:"omitempty,gte=0"`
	Points             *int     `json:"points" validate:"omitempty,gt=0"`
	Order              *int     `json:"order" validate:"omitempty,gte=0"`
}

// QuizAnswer is the option a student selected for one question.
type QuizAnswer struct {
	QuestionID          string `json:"question_id" validate:"required,max=64"`
	SelectedOptionIndex int    `json:"selected_option_index" validate:"gte=0"`
}

// QuizAttemptRequest submits answers for a quiz.
type QuizAttemptRequest struct {
	Answers []QuizAnswer `json:"answers" validate:"dive"`
}

// QuestionResponse serializes a question. CorrectOptionIndex is omitted for students.
type QuestionResponse struct {
	ID                 string   `json:"id"`
	QuizID             string   `json:"quiz_id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correct_option_index,omitempty"`
	Points             int      `json:"points"`
	Order              int      `json:"order"`
}

// QuizResponse serializes a quiz with its questions.
type QuizResponse struct {
	ID               string             `json:"id"`
	CourseID         string             `json:"course_id"`
	InstructorID     string             `json:"instructor_id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	TimeLimitMinutes int                `json:"time_limit_minutes"`
	AttemptsAllowed  int                `json:"attempts_allowed"`
	PassingScore     float64            `json:"passing_score"`
	IsPublished      bool               `json:"is_published"`
	Questions        []QuestionResponse `json:"questions"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NewQuestionResponse converts a question model. revealAnswer controls the correct index.
func NewQuestionResponse(model models.Question, revealAnswer bool) QuestionResponse {
	response := QuestionResponse{
		ID:      model.ID,
		QuizID:  model.QuizID,
		Text:    model.Text,
		Options: append([]string(nil), model.Options...),
		Points:  model.Points,
		Order:   model.Order,
	}
	if revealAnswer {
		index := model.CorrectOptionIndex
		response.CorrectOptionIndex = &index
	}
	return response
}

// NewQuizResponse converts a quiz model and its loaded questions.
func NewQuizResponse(model models.Quiz, revealAnswers bool) QuizResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question, revealAnswers))
	}
	return QuizResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		InstructorID:     model.InstructorID,
		Title:            model.Title,
		Description:      model.Description,
		TimeLimitMinutes: model.TimeLimitMinutes,
		AttemptsAllowed:  model.AttemptsAllowed,
		PassingScore:     model.PassingScore,
		IsPublished:      model.IsPublished,
		Questions:        questions,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewQuizResponseSlice converts quiz models into DTOs.
func NewQuizResponseSlice(items []models.Quiz, revealAnswers bool) []QuizResponse {
	out := make([]QuizResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewQuizResponse(item, revealAnswers))
	}
	return out
}

// QuizAttemptResponse serializes a scored attempt.
type QuizAttemptResponse struct {
	ID              string                 `json:"id"`
	QuizID          string                 `json:"quiz_id"`
	StudentID       string                 `json:"student_id"`
	AttemptNumber   int                    `json:"attempt_number"`
	Answers         []models.AttemptAnswer `json:"answers"`
	Score           int                    `json:"score"`
	TotalQuestions  int                    `json:"total_questions"`
	PercentageScore float64                `json:"percentage_score"`
	Passed          bool                   `json:"passed"`
	SubmittedAt     time.Time              `json:"submitted_at"`
}

// NewQuizAttemptResponse converts an attempt model into a DTO.
func NewQuizAttemptResponse(model models.QuizAttempt) QuizAttemptResponse {
	answers := make([]models.AttemptAnswer, 0, len(model.Answers))
	answers = append(answers, model.Answers...)
	return QuizAttemptResponse{
		ID:              model.ID,
		QuizID:          model.QuizID,
		StudentID:       model.StudentID,
		AttemptNumber:   model.AttemptNumber,
		Answers:         answers,
		Score:           model.Score,
		TotalQuestions:  model.TotalQuestions,
		PercentageScore: model.PercentageScore,
		Passed:          model.Passed,
		SubmittedAt:     model.SubmittedAt,
	}
}

// NewQuizAttemptResponseSlice converts attempt models into DTOs.
func NewQuizAttemptResponseSlice(items []models.QuizAttempt) []QuizAttemptResponse {
	out := make([]QuizAttemptResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewQuizAttemptResponse(item))
	}
	return out
}
