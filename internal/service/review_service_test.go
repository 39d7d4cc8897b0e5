package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/pkg/ai"
)

type stubDrafter struct {
	lastInput ai.DraftInput
}

func (s *stubDrafter) Draft(_ context.Context, input ai.DraftInput) (ai.DraftResult, error) {
	s.lastInput = input
	return ai.DraftResult{Feedback: "Nice use of past tense; mind the accents.", Model: "stub-model"}, nil
}

func newReviewService(t *testing.T, db *gorm.DB, drafter ai.FeedbackDrafter) ReviewService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewReviewService(repository.NewAttemptRepository(db), nil, drafter, validate, zerolog.Nop())
}

// seedReviewableAttempt stores an attempt with one correct multiple-choice
// answer (10 points) and one pending text answer (10 points).
func seedReviewableAttempt(t *testing.T, db *gorm.DB) models.LessonAttempt {
	t.Helper()

	attempt := models.LessonAttempt{
		AssignmentID:   1,
		StudentID:      7,
		LessonID:       1,
		Score:          100,
		AwaitingReview: true,
		SubmittedAt:    time.Now().UTC(),
		Answers: []models.SubmittedAnswer{
			{ExerciseID: 1, Kind: grading.KindMultipleChoice, Position: 0, Value: "le pain", IsCorrect: true, Points: 10, ReviewStatus: models.ReviewStatusNone},
			{ExerciseID: 2, Kind: grading.KindTextAnswer, Position: 1, Value: "J'ai mangé une baguette.", IsCorrect: true, Points: 10, ReviewStatus: models.ReviewStatusPending},
		},
	}
	require.NoError(t, db.Create(&attempt).Error)
	return attempt
}

func TestReviewReaggregatesAttemptScore(t *testing.T) {
	db := setupServiceDB(t)
	svc := newReviewService(t, db, nil)

	attempt := seedReviewableAttempt(t, db)
	textAnswer := attempt.Answers[1]

	actor := ReviewActor{ID: 42, Role: "tutor"}
	reviewed, err := svc.Review(context.Background(), textAnswer.ID, dto.ReviewRequest{Score: 50, Feedback: "Solid, watch the article."}, actor)
	require.NoError(t, err)

	// 10 auto points + 10*0.5 reviewed points out of 20 -> 75.
	require.Equal(t, 75, reviewed.AttemptScore)
	require.False(t, reviewed.AwaitingReview)
	require.Equal(t, models.ReviewStatusReviewed, reviewed.Answer.ReviewStatus)
	require.NotNil(t, reviewed.Answer.TutorScore)
	require.Equal(t, 50, *reviewed.Answer.TutorScore)
	require.True(t, reviewed.Answer.IsCorrect)

	var history []models.ReviewHistory
	require.NoError(t, db.Where("answer_id = ?", textAnswer.ID).Find(&history).Error)
	require.Len(t, history, 1)
	require.Equal(t, uint(42), history[0].ReviewedBy)
}

func TestReviewLowScoreMarksAnswerIncorrect(t *testing.T) {
	db := setupServiceDB(t)
	svc := newReviewService(t, db, nil)

	attempt := seedReviewableAttempt(t, db)

	reviewed, err := svc.Review(context.Background(), attempt.Answers[1].ID, dto.ReviewRequest{Score: 20}, ReviewActor{ID: 42, Role: "tutor"})
	require.NoError(t, err)
	require.False(t, reviewed.Answer.IsCorrect)
	// 10 + 10*0.2 out of 20 -> 60.
	require.Equal(t, 60, reviewed.AttemptScore)
}

func TestReviewIsIdempotentForRepeatedSubmission(t *testing.T) {
	db := setupServiceDB(t)
	svc := newReviewService(t, db, nil)

	attempt := seedReviewableAttempt(t, db)
	answerID := attempt.Answers[1].ID
	actor := ReviewActor{ID: 42, Role: "tutor"}
	payload := dto.ReviewRequest{Score: 80, Feedback: "Bien."}

	first, err := svc.Review(context.Background(), answerID, payload, actor)
	require.NoError(t, err)

	second, err := svc.Review(context.Background(), answerID, payload, actor)
	require.NoError(t, err)
	require.Equal(t, first.AttemptScore, second.AttemptScore)

	var historyCount int64
	require.NoError(t, db.Model(&models.ReviewHistory{}).Where("answer_id = ?", answerID).Count(&historyCount).Error)
	require.Equal(t, int64(1), historyCount)
}

func TestReviewRegradeByDifferentScoreAppendsHistory(t *testing.T) {
	db := setupServiceDB(t)
	svc := newReviewService(t, db, nil)

	attempt := seedReviewableAttempt(t, db)
	answerID := attempt.Answers[1].ID
	actor := ReviewActor{ID: 42, Role: "tutor"}

	_, err := svc.Review(context.Background(), answerID, dto.ReviewRequest{Score: 40}, actor)
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), answerID, dto.ReviewRequest{Score: 90}, actor)
	require.NoError(t, err)
	// 10 + 10*0.9 out of 20 -> 95.
	require.Equal(t, 95, reviewed.AttemptScore)

	var historyCount int64
	require.NoError(t, db.Model(&models.ReviewHistory{}).Where("answer_id = ?", answerID).Count(&historyCount).Error)
	require.Equal(t, int64(2), historyCount)
}

func TestReviewRejectsNonTextAnswers(t *testing.T) {
	db := setupServiceDB(t)
	svc := newReviewService(t, db, nil)

	attempt := seedReviewableAttempt(t, db)

	_, err := svc.Review(context.Background(), attempt.Answers[0].ID, dto.ReviewRequest{Score: 100}, ReviewActor{ID: 42})
	require.ErrorIs(t, err, ErrAnswerNotReviewable)

	_, err = svc.Review(context.Background(), 999999, dto.ReviewRequest{Score: 100}, ReviewActor{ID: 42})
	require.ErrorIs(t, err, ErrAnswerNotFound)
}

func TestDraftFeedback(t *testing.T) {
	db := setupServiceDB(t)
	drafter := &stubDrafter{}
	svc := newReviewService(t, db, drafter)

	attempt := seedReviewableAttempt(t, db)
	textAnswer := attempt.Answers[1]

	draft, err := svc.DraftFeedback(context.Background(), textAnswer.ID)
	require.NoError(t, err)
	require.Equal(t, textAnswer.ID, draft.AnswerID)
	require.Equal(t, "Nice use of past tense; mind the accents.", draft.Draft)
	require.Equal(t, "stub-model", draft.Model)
	require.Equal(t, textAnswer.Value, drafter.lastInput.AnswerText)

	// Drafts never touch the stored answer.
	var stored models.SubmittedAnswer
	require.NoError(t, db.First(&stored, textAnswer.ID).Error)
	require.Empty(t, stored.TutorFeedback)

	_, err = svc.DraftFeedback(context.Background(), attempt.Answers[0].ID)
	require.ErrorIs(t, err, ErrAnswerNotReviewable)

	unconfigured := newReviewService(t, db, nil)
	_, err = unconfigured.DraftFeedback(context.Background(), textAnswer.ID)
	require.ErrorIs(t, err, ErrDrafterUnavailable)
}
