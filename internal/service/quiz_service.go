package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-go-api/internal/dto"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/observability"
	"github.com/noah-isme/lms-go-api/internal/policy"
	"github.com/noah-isme/lms-go-api/internal/repository"
)

// QuizService manages quizzes, their questions and scored attempts.
type QuizService interface {
	Create(ctx context.Context, actor policy.Actor, req dto.QuizCreateRequest) (dto.QuizResponse, error)
	Get(ctx context.Context, actor policy.Actor, id string) (dto.QuizResponse, error)
	ListByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]dto.QuizResponse, error)
	Update(ctx context.Context, actor policy.Actor, id string, req dto.QuizUpdateRequest) (dto.QuizResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
	AddQuestion(ctx context.Context, actor policy.Actor, quizID string, req dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, actor policy.Actor, quizID, questionID string, req dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, actor policy.Actor, quizID, questionID string) error
	SubmitAttempt(ctx context.Context, actor policy.Actor, quizID string, req dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error)
	ListAttempts(ctx context.Context, actor policy.Actor, quizID string) ([]dto.QuizAttemptResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	gate      courseGate
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewQuizService constructs the quiz service.
func NewQuizService(quizzes repository.QuizRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizzes,
		gate:      courseGate{courses: courses, enrollments: enrollments},
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		tracer:    otel.Tracer(tracerPrefix + "quiz"),
		now:       time.Now,
	}
}

func (s *quizService) Create(ctx context.Context, actor policy.Actor, req dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	course, err := s.gate.manage(ctx, actor, req.CourseID)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	if req.IsPublished && len(req.Questions) == 0 {
		return dto.QuizResponse{}, invalid("a quiz needs at least one question before publishing")
	}

	attempts := req.AttemptsAllowed
	if attempts <= 0 {
		attempts = 1
	}

	quiz := models.Quiz{
		CourseID:         course.ID,
		InstructorID:     course.InstructorID,
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		TimeLimitMinutes: req.TimeLimitMinutes,
		AttemptsAllowed:  attempts,
		PassingScore:     req.PassingScore,
		IsPublished:      req.IsPublished,
	}
	for i, item := range req.Questions {
		question, err := buildQuestion(item, i)
		if err != nil {
			return dto.QuizResponse{}, err
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().Str("quiz_id", quiz.ID).Int("questions", len(quiz.Questions)).Msg("quiz created")
	return dto.NewQuizResponse(quiz, true), nil
}

// Get reveals correct answers only to course managers. Students must be
// enrolled and cannot see unpublished quizzes.
func (s *quizService) Get(ctx context.Context, actor policy.Actor, id string) (dto.QuizResponse, error) {
	quiz, err := s.load(ctx, id)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	_, manager, err := s.gate.participate(ctx, actor, quiz.CourseID)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	if !manager && !quiz.IsPublished {
		return dto.QuizResponse{}, notFound("quiz not found")
	}
	return dto.NewQuizResponse(quiz, manager), nil
}

func (s *quizService) ListByCourse(ctx context.Context, actor policy.Actor, courseID string) ([]dto.QuizResponse, error) {
	_, manager, err := s.gate.participate(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID, !manager)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizResponseSlice(quizzes, manager), nil
}

func (s *quizService) Update(ctx context.Context, actor policy.Actor, id string, req dto.QuizUpdateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	quiz, err := s.managed(ctx, actor, id)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	if v := trimmed(req.Title); v != nil {
		quiz.Title = *v
	}
	if v := trimmed(req.Description); v != nil {
		quiz.Description = *v
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.AttemptsAllowed != nil {
		quiz.AttemptsAllowed = *req.AttemptsAllowed
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.IsPublished != nil {
		if *req.IsPublished && len(quiz.Questions) == 0 {
			return dto.QuizResponse{}, invalid("a quiz needs at least one question before publishing")
		}
		quiz.IsPublished = *req.IsPublished
	}

	if err := s.quizzes.Update(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}
	return dto.NewQuizResponse(quiz, true), nil
}

func (s *quizService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}
	return lookup(s.quizzes.Delete(ctx, id), "quiz not found")
}

func (s *quizService) AddQuestion(ctx context.Context, actor policy.Actor, quizID string, req dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuestionResponse{}, err
	}
	quiz, err := s.managed(ctx, actor, quizID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := buildQuestion(req, nextQuestionOrder(quiz.Questions))
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	question.QuizID = quiz.ID

	if err := s.quizzes.CreateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}
	return dto.NewQuestionResponse(question, true), nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, actor policy.Actor, quizID, questionID string, req dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuestionResponse{}, err
	}
	if _, err := s.managed(ctx, actor, quizID); err != nil {
		return dto.QuestionResponse{}, err
	}
	question, err := s.questionInQuiz(ctx, quizID, questionID)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	if v := trimmed(req.Text); v != nil {
		question.Text = *v
	}
	if len(req.Options) > 0 {
		question.Options = trimOptions(req.Options)
	}
	if req.CorrectOptionIndex != nil {
		question.CorrectOptionIndex = *req.CorrectOptionIndex
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Order != nil {
		question.Order = *req.Order
	}
	if question.CorrectOptionIndex >= len(question.Options) {
		return dto.QuestionResponse{}, invalid("correct_option_index must point to one of the options")
	}

	if err := s.quizzes.UpdateQuestion(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}
	return dto.NewQuestionResponse(question, true), nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, actor policy.Actor, quizID, questionID string) error {
	if _, err := s.managed(ctx, actor, quizID); err != nil {
		return err
	}
	if _, err := s.questionInQuiz(ctx, quizID, questionID); err != nil {
		return err
	}
	return lookup(s.quizzes.DeleteQuestion(ctx, questionID), "question not found")
}

// SubmitAttempt scores a student's answers. Each question scores one point on
// an exact index match; unanswered questions score zero. The attempt number is
// guarded by a unique index so concurrent submissions cannot exceed the cap.
func (s *quizService) SubmitAttempt(ctx context.Context, actor policy.Actor, quizID string, req dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.attempt", trace.WithAttributes(
		attribute.String("quiz.id", quizID),
		attribute.String("quiz.student_id", actor.ID),
	))
	defer span.End()

	fail := func(status string, err error) (dto.QuizAttemptResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.QuizAttemptResponse{}, err
	}

	if err := requireActor(actor); err != nil {
		return fail("unauthenticated", err)
	}
	if !actor.IsStudent() {
		return fail("forbidden", forbidden("only students can attempt quizzes"))
	}
	if err := s.validator.Struct(req); err != nil {
		return fail("validation_failed", err)
	}

	quiz, err := s.load(ctx, quizID)
	if err != nil {
		return fail("quiz_lookup_failed", err)
	}
	if _, err := s.gate.enrollment(ctx, actor, quiz.CourseID); err != nil {
		return fail("not_enrolled", err)
	}
	if !quiz.IsPublished {
		return fail("unpublished", notFound("quiz not found"))
	}

	allowed := quiz.AttemptsAllowed
	if allowed <= 0 {
		allowed = 1
	}
	used, err := s.quizzes.CountAttempts(ctx, quiz.ID, actor.ID)
	if err != nil {
		return fail("count_failed", err)
	}
	if int(used) >= allowed {
		return fail("max_attempts", invalid("max attempts exceeded"))
	}

	attempt := scoreAttempt(quiz, req.Answers)
	attempt.QuizID = quiz.ID
	attempt.StudentID = actor.ID
	attempt.AttemptNumber = int(used) + 1
	attempt.SubmittedAt = s.now().UTC()

	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		if repository.IsUniqueViolation(err) {
			if attempt.AttemptNumber >= allowed {
				return fail("max_attempts", invalid("max attempts exceeded"))
			}
			return fail("concurrent_attempt", conflict("another attempt was submitted at the same time, please retry"))
		}
		return fail("persist_failed", err)
	}

	observability.QuizAttempts().WithLabelValues(strconv.FormatBool(attempt.Passed)).Inc()
	span.SetAttributes(
		attribute.Int("quiz.attempt_number", attempt.AttemptNumber),
		attribute.Float64("quiz.percentage", attempt.PercentageScore),
		attribute.Bool("quiz.passed", attempt.Passed),
	)

	return dto.NewQuizAttemptResponse(attempt), nil
}

func (s *quizService) ListAttempts(ctx context.Context, actor policy.Actor, quizID string) ([]dto.QuizAttemptResponse, error) {
	quiz, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	_, manager, err := s.gate.participate(ctx, actor, quiz.CourseID)
	if err != nil {
		return nil, err
	}

	studentID := ""
	if !manager {
		studentID = actor.ID
	}
	attempts, err := s.quizzes.ListAttempts(ctx, quiz.ID, studentID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizAttemptResponseSlice(attempts), nil
}

func (s *quizService) load(ctx context.Context, id string) (models.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		return models.Quiz{}, lookup(err, "quiz not found")
	}
	return quiz, nil
}

func (s *quizService) managed(ctx context.Context, actor policy.Actor, id string) (models.Quiz, error) {
	quiz, err := s.load(ctx, id)
	if err != nil {
		return models.Quiz{}, err
	}
	if _, err := s.gate.manage(ctx, actor, quiz.CourseID); err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (s *quizService) questionInQuiz(ctx context.Context, quizID, questionID string) (models.Question, error) {
	question, err := s.quizzes.GetQuestion(ctx, questionID)
	if err != nil {
		return models.Question{}, lookup(err, "question not found")
	}
	if question.QuizID != quizID {
		return models.Question{}, notFound("question not found")
	}
	return question, nil
}

// scoreAttempt grades answers against the quiz's questions. When a question is
// answered more than once the last answer counts.
func scoreAttempt(quiz models.Quiz, answers []dto.QuizAnswer) models.QuizAttempt {
	selected := make(map[string]int, len(answers))
	for _, answer := range answers {
		selected[answer.QuestionID] = answer.SelectedOptionIndex
	}

	graded := make([]models.AttemptAnswer, 0, len(quiz.Questions))
	score := 0
	for _, question := range quiz.Questions {
		index, answered := selected[question.ID]
		if !answered {
			continue
		}
		correct := index == question.CorrectOptionIndex
		if correct {
			score++
		}
		graded = append(graded, models.AttemptAnswer{
			QuestionID:          question.ID,
			SelectedOptionIndex: index,
			Correct:             correct,
		})
	}

	total := len(quiz.Questions)
	percentage := policy.PercentageScore(score, total)
	return models.QuizAttempt{
		Answers:         graded,
		Score:           score,
		TotalQuestions:  total,
		PercentageScore: percentage,
		Passed:          percentage >= quiz.PassingScore,
	}
}

func buildQuestion(req dto.QuestionCreateRequest, defaultOrder int) (models.Question, error) {
	options := trimOptions(req.Options)
	if req.CorrectOptionIndex >= len(options) {
		return models.Question{}, invalid(fmt.Sprintf("correct_option_index %d is out of range for %d options", req.CorrectOptionIndex, len(options)))
	}

	points := req.Points
	if points <= 0 {
		points = 1
	}
	order := defaultOrder
	if req.Order != nil {
		order = *req.Order
	}

	return models.Question{
		Text:               strings.TrimSpace(req.Text),
		Options:            options,
		CorrectOptionIndex: req.CorrectOptionIndex,
		Points:             points,
		Order:              order,
	}, nil
}

func trimOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		out = append(out, strings.TrimSpace(option))
	}
	return out
}

func nextQuestionOrder(questions []models.Question) int {
	next := 0
	for _, question := range questions {
		if question.Order >= next {
			next = question.Order + 1
		}
	}
	return next
}
