package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/observability"
	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/pkg/ai"
)

// ErrAnswerNotFound indicates the submitted answer was not located.
var ErrAnswerNotFound = errors.New("submitted answer not found")

// ErrAnswerNotReviewable indicates the answer's kind never requires review.
var ErrAnswerNotReviewable = errors.New("answer is not a text answer")

// ErrDrafterUnavailable indicates no AI feedback drafter is configured.
var ErrDrafterUnavailable = errors.New("feedback drafter not configured")

// ReviewActor identifies the tutor performing a review.
type ReviewActor struct {
	ID   uint
	Role string
}

// ReviewService encapsulates the tutor review workflow for text answers.
type ReviewService interface {
	Review(ctx context.Context, answerID uint, payload dto.ReviewRequest, actor ReviewActor) (dto.ReviewedAnswerResponse, error)
	DraftFeedback(ctx context.Context, answerID uint) (dto.FeedbackDraftResponse, error)
}

type reviewService struct {
	attempts  repository.AttemptRepository
	roster    RosterInvalidator
	drafter   ai.FeedbackDrafter
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReviewService constructs the review service. drafter may be nil; the
// draft endpoint then reports ErrDrafterUnavailable while manual review
// keeps working.
func NewReviewService(attempts repository.AttemptRepository, roster RosterInvalidator, drafter ai.FeedbackDrafter, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		attempts:  attempts,
		roster:    roster,
		drafter:   drafter,
		validator: validate,
		logger:    logger.With().Str("component", "review_service").Logger(),
		now:       time.Now,
	}
}

func (s *reviewService) Review(ctx context.Context, answerID uint, payload dto.ReviewRequest, actor ReviewActor) (dto.ReviewedAnswerResponse, error) {
	tracer := otel.Tracer("github.com/linguaflow/linguaflow-api/internal/service/review")
	ctx, span := tracer.Start(ctx, "review.answer")
	span.SetAttributes(
		attribute.Int64("review.answer_id", int64(answerID)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReviewedAnswerResponse{}, err
	}

	answer, err := s.attempts.GetAnswerByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "answer_not_found")
			return dto.ReviewedAnswerResponse{}, ErrAnswerNotFound
		}
		span.RecordError(err)
		return dto.ReviewedAnswerResponse{}, err
	}

	if answer.Kind != grading.KindTextAnswer {
		span.SetStatus(codes.Error, "answer_not_reviewable")
		return dto.ReviewedAnswerResponse{}, ErrAnswerNotReviewable
	}

	feedback := strings.TrimSpace(payload.Feedback)

	isIdempotent := answer.TutorScore != nil &&
		*answer.TutorScore == payload.Score &&
		strings.TrimSpace(answer.TutorFeedback) == feedback &&
		answer.ReviewedBy != nil && *answer.ReviewedBy == actor.ID
	if isIdempotent {
		span.SetAttributes(attribute.Bool("review.idempotent", true))
		attempt, err := s.attempts.GetByID(ctx, answer.AttemptID)
		if err != nil {
			return dto.ReviewedAnswerResponse{}, err
		}
		return dto.NewReviewedAnswerResponse(answer, attempt), nil
	}

	score := payload.Score
	reviewedAt := s.now()
	reviewedBy := actor.ID
	answer.TutorScore = &score
	answer.TutorFeedback = feedback
	answer.ReviewStatus = models.ReviewStatusReviewed
	answer.ReviewedBy = &reviewedBy
	answer.ReviewedAt = &reviewedAt
	answer.IsCorrect = score >= 50

	if err := s.attempts.UpdateAnswer(ctx, &answer); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer_update_failed")
		return dto.ReviewedAnswerResponse{}, err
	}

	history := models.ReviewHistory{
		AnswerID:   answer.ID,
		Score:      score,
		Feedback:   feedback,
		ReviewedBy: actor.ID,
		ReviewedAt: reviewedAt,
	}
	if err := s.attempts.CreateReviewHistory(ctx, &history); err != nil {
		s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("failed to persist review history")
		span.RecordError(err)
	}

	attempt, err := s.reaggregateAttempt(ctx, answer.AttemptID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reaggregation_failed")
		return dto.ReviewedAnswerResponse{}, err
	}

	if s.roster != nil {
		s.roster.InvalidateRoster(ctx, attempt.StudentID)
	}

	observability.ReviewsRecorded().Inc()

	span.SetAttributes(
		attribute.Int("review.score", score),
		attribute.Int("review.attempt_score", attempt.Score),
	)
	s.logger.Info().
		Uint("answer_id", answer.ID).
		Uint("attempt_id", attempt.ID).
		Int("tutor_score", score).
		Int("attempt_score", attempt.Score).
		Msg("text answer reviewed")

	return dto.NewReviewedAnswerResponse(answer, attempt), nil
}

// DraftFeedback asks the configured AI drafter for a feedback suggestion.
// The draft is returned to the tutor for editing and is never persisted.
func (s *reviewService) DraftFeedback(ctx context.Context, answerID uint) (dto.FeedbackDraftResponse, error) {
	if s.drafter == nil {
		return dto.FeedbackDraftResponse{}, ErrDrafterUnavailable
	}

	answer, err := s.attempts.GetAnswerByID(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackDraftResponse{}, ErrAnswerNotFound
		}
		return dto.FeedbackDraftResponse{}, err
	}

	if answer.Kind != grading.KindTextAnswer {
		return dto.FeedbackDraftResponse{}, ErrAnswerNotReviewable
	}

	result, err := s.drafter.Draft(ctx, ai.DraftInput{AnswerText: answer.Value})
	if err != nil {
		return dto.FeedbackDraftResponse{}, err
	}

	return dto.FeedbackDraftResponse{
		AnswerID: answer.ID,
		Draft:    result.Feedback,
		Model:    result.Model,
	}, nil
}

// reaggregateAttempt recomputes the attempt score after a review and clears
// AwaitingReview once no pending answers remain.
func (s *reviewService) reaggregateAttempt(ctx context.Context, attemptID uint) (models.LessonAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return models.LessonAttempt{}, err
	}

	pending, err := s.attempts.CountPendingAnswers(ctx, attemptID)
	if err != nil {
		return models.LessonAttempt{}, err
	}

	attempt.Score = reaggregateScore(attempt.Answers)
	attempt.AwaitingReview = pending > 0

	if err := s.attempts.Update(ctx, &attempt); err != nil {
		return models.LessonAttempt{}, err
	}

	return attempt, nil
}

// reaggregateScore extends the submission-time aggregation with tutor
// results: reviewed text answers join the weighted total, earning their
// points scaled by the tutor's 0-100 score, while still-pending text
// answers stay excluded. With nothing gradable and nothing reviewed the
// full-credit-pending-review policy applies, matching grading.AggregateScore.
func reaggregateScore(answers []models.SubmittedAnswer) int {
	var totalPoints, earnedPoints float64

	for _, answer := range answers {
		switch {
		case answer.Kind.AutoGradable():
			totalPoints += float64(answer.Points)
			if answer.IsCorrect {
				earnedPoints += float64(answer.Points)
			}
		case answer.IsReviewed() && answer.TutorScore != nil:
			totalPoints += float64(answer.Points)
			earnedPoints += float64(answer.Points) * float64(*answer.TutorScore) / 100
		}
	}

	if totalPoints == 0 {
		return grading.FullScore
	}

	return int(math.Floor(100*earnedPoints/totalPoints + 0.5))
}
