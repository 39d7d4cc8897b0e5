package dto

import (
	"time"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// ReviewRequest carries a tutor's score for a pending text answer.
type ReviewRequest struct {
	Score    int    `json:"score" validate:"gte=0,lte=100"`
	Feedback string `json:"feedback" validate:"omitempty,max=4000"`
}

// ReviewedAnswerResponse is the answer state after a tutor review, including
// the attempt score recomputed with the tutor's result folded in.
type ReviewedAnswerResponse struct {
	Answer         AnswerResponse `json:"answer"`
	AttemptID      uint           `json:"attempt_id"`
	AttemptScore   int            `json:"attempt_score"`
	AwaitingReview bool           `json:"awaiting_review"`
	ReviewedAt     time.Time      `json:"reviewed_at"`
}

// FeedbackDraftResponse is an AI-generated feedback suggestion a tutor may
// edit or discard; it is never stored unless the tutor submits it.
type FeedbackDraftResponse struct {
	AnswerID uint   `json:"answer_id"`
	Draft    string `json:"draft"`
	Model    string `json:"model"`
}

// NewReviewedAnswerResponse builds the review outcome DTO.
func NewReviewedAnswerResponse(answer models.SubmittedAnswer, attempt models.LessonAttempt) ReviewedAnswerResponse {
	reviewedAt := time.Time{}
	if answer.ReviewedAt != nil {
		reviewedAt = *answer.ReviewedAt
	}

	return ReviewedAnswerResponse{
		Answer:         NewAnswerResponse(answer),
		AttemptID:      attempt.ID,
		AttemptScore:   attempt.Score,
		AwaitingReview: attempt.AwaitingReview,
		ReviewedAt:     reviewedAt,
	}
}
