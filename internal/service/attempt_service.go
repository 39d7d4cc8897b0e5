package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/observability"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrAttemptNotFound indicates the requested attempt does not exist.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrAttemptAlreadySubmitted indicates the assignment was already completed.
var ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")

// ErrAttemptForbidden indicates the caller does not own the assignment.
var ErrAttemptForbidden = errors.New("assignment belongs to another student")

// ErrLessonGone indicates the assignment points at a lesson that no longer
// exists, so there is nothing to attempt; the roster surfaces these as
// orphaned entries.
var ErrLessonGone = errors.New("assigned lesson no longer exists")

// RosterInvalidator lets the attempt flow drop a student's cached roster
// once their assignment state changes.
type RosterInvalidator interface {
	InvalidateRoster(ctx context.Context, studentID uint)
}

// AttemptService handles submission and retrieval of lesson attempts.
type AttemptService interface {
	Submit(ctx context.Context, studentID, assignmentID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error)
	GetByAssignment(ctx context.Context, studentID, assignmentID uint) (dto.AttemptResponse, error)
}

type attemptService struct {
	attempts    repository.AttemptRepository
	assignments repository.AssignmentRepository
	lessons     repository.LessonRepository
	roster      RosterInvalidator
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAttemptService builds the attempt submission service.
func NewAttemptService(attempts repository.AttemptRepository, assignments repository.AssignmentRepository, lessons repository.LessonRepository, roster RosterInvalidator, validate *validator.Validate, logger zerolog.Logger) AttemptService {
	return &attemptService{
		attempts:    attempts,
		assignments: assignments,
		lessons:     lessons,
		roster:      roster,
		validator:   validate,
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

// Submit grades a full exercise set and finalizes the assignment. Answers
// are graded per exercise kind; exercises with no submitted answer are
// graded against the empty string. The attempt score excludes text_answer
// exercises, which enter review instead; when every exercise is a
// text_answer the score is grading.FullScore and AwaitingReview is set so
// clients can present "awaiting review" instead of a perfect result.
func (s *attemptService) Submit(ctx context.Context, studentID, assignmentID uint, payload dto.AttemptSubmitRequest) (dto.AttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAssignmentNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if assignment.StudentID != studentID {
		return dto.AttemptResponse{}, ErrAttemptForbidden
	}

	if assignment.IsCompleted() {
		return dto.AttemptResponse{}, ErrAttemptAlreadySubmitted
	}

	lesson, err := s.lessons.GetByID(ctx, assignment.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrLessonGone
		}
		return dto.AttemptResponse{}, err
	}

	valueByExercise := make(map[uint]string, len(payload.Answers))
	for _, answer := range payload.Answers {
		valueByExercise[answer.ExerciseID] = answer.Value
	}

	submittedAt := s.now()
	answers := make([]models.SubmittedAnswer, 0, len(lesson.Exercises))
	items := make([]grading.GradedItem, 0, len(lesson.Exercises))
	awaitingReview := false

	for i, exercise := range lesson.Exercises {
		raw := valueByExercise[exercise.ID]
		correct := grading.Grade(exercise.Kind, exercise.ExpectedAnswer, raw)

		reviewStatus := models.ReviewStatusNone
		if exercise.Kind == grading.KindTextAnswer {
			reviewStatus = models.ReviewStatusPending
			awaitingReview = true
		}

		answers = append(answers, models.SubmittedAnswer{
			ExerciseID:   exercise.ID,
			Kind:         exercise.Kind,
			Position:     i,
			Value:        raw,
			IsCorrect:    correct,
			Points:       exercise.Points,
			ReviewStatus: reviewStatus,
		})

		items = append(items, grading.GradedItem{
			Kind:      exercise.Kind,
			Points:    exercise.Points,
			IsCorrect: correct,
		})
	}

	score := grading.AggregateScore(items)

	attempt := models.LessonAttempt{
		AssignmentID:   assignment.ID,
		StudentID:      studentID,
		LessonID:       lesson.ID,
		Score:          score,
		AwaitingReview: awaitingReview,
		SubmittedAt:    submittedAt,
		Answers:        answers,
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		return dto.AttemptResponse{}, err
	}

	assignment.Status = models.AssignmentStatusCompleted
	assignment.Score = &score
	assignment.Progress = 100
	assignment.TimeSpentMinutes += payload.TimeSpentMinutes
	completedAt := submittedAt
	assignment.CompletedAt = &completedAt

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AttemptResponse{}, err
	}

	if s.roster != nil {
		s.roster.InvalidateRoster(ctx, studentID)
	}

	observability.AttemptsSubmitted().WithLabelValues(awaitingLabel(awaitingReview)).Inc()
	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Uint("assignment_id", assignment.ID).
		Int("score", score).
		Bool("awaiting_review", awaitingReview).
		Msg("attempt submitted")

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) GetByAssignment(ctx context.Context, studentID, assignmentID uint) (dto.AttemptResponse, error) {
	attempt, err := s.attempts.GetByAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptResponse{}, ErrAttemptNotFound
		}
		return dto.AttemptResponse{}, err
	}

	if attempt.StudentID != studentID {
		return dto.AttemptResponse{}, ErrAttemptForbidden
	}

	return dto.NewAttemptResponse(attempt), nil
}

func awaitingLabel(awaiting bool) string {
	if awaiting {
		return "awaiting_review"
	}
	return "final"
}
