package dto

import (
	"time"

	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
)

// AnswerInput is a student's response to one exercise. Exercises left
// unanswered may simply be omitted; the attempt service grades a missing
// answer as an empty string.
type AnswerInput struct {
	ExerciseID uint   `json:"exercise_id" validate:"required"`
	Value      string `json:"value"`
}

// AttemptSubmitRequest finalizes a student's pass through a lesson.
type AttemptSubmitRequest struct {
	Answers          []AnswerInput `json:"answers" validate:"dive"`
	TimeSpentMinutes int           `json:"time_spent_minutes" validate:"gte=0"`
}

// AnswerResponse is the graded view of a submitted answer. For text_answer
// kinds IsCorrect is provisional until ReviewStatus becomes "reviewed".
type AnswerResponse struct {
	ID            uint         `json:"id"`
	ExerciseID    uint         `json:"exercise_id"`
	Kind          grading.Kind `json:"kind"`
	Value         string       `json:"value"`
	IsCorrect     bool         `json:"is_correct"`
	Points        int          `json:"points"`
	ReviewStatus  string       `json:"review_status"`
	TutorScore    *int         `json:"tutor_score"`
	TutorFeedback string       `json:"tutor_feedback,omitempty"`
}

// AttemptResponse is the outcome of submitting a full exercise set. When
// AwaitingReview is true the score is provisional and the UI should present
// the attempt as "awaiting review" rather than a measured result.
type AttemptResponse struct {
	ID             uint             `json:"id"`
	AssignmentID   uint             `json:"assignment_id"`
	LessonID       uint             `json:"lesson_id"`
	Score          int              `json:"score"`
	AwaitingReview bool             `json:"awaiting_review"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	Answers        []AnswerResponse `json:"answers"`
}

// NewAnswerResponse converts a submitted answer model into a DTO.
func NewAnswerResponse(model models.SubmittedAnswer) AnswerResponse {
	return AnswerResponse{
		ID:            model.ID,
		ExerciseID:    model.ExerciseID,
		Kind:          model.Kind,
		Value:         model.Value,
		IsCorrect:     model.IsCorrect,
		Points:        model.Points,
		ReviewStatus:  model.ReviewStatus,
		TutorScore:    model.TutorScore,
		TutorFeedback: model.TutorFeedback,
	}
}

// NewAttemptResponse converts an attempt model into a DTO.
func NewAttemptResponse(model models.LessonAttempt) AttemptResponse {
	answers := make([]AnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, NewAnswerResponse(answer))
	}

	return AttemptResponse{
		ID:             model.ID,
		AssignmentID:   model.AssignmentID,
		LessonID:       model.LessonID,
		Score:          model.Score,
		AwaitingReview: model.AwaitingReview,
		SubmittedAt:    model.SubmittedAt,
		Answers:        answers,
	}
}
