package dto

import (
	"encoding/json"
	"time"

	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
)

// LessonCreateRequest describes the payload for publishing a new lesson.
type LessonCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,min=3"`
	Description string `form:"description" json:"description" validate:"required,min=10"`
	Language    string `form:"language" json:"language" validate:"required,min=2"`
	Level       string `form:"level" json:"level" validate:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
}

// LessonUpdateRequest describes a partial lesson update.
type LessonUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=3"`
	Description *string `form:"description" json:"description" validate:"omitempty,min=10"`
	Language    *string `form:"language" json:"language" validate:"omitempty,min=2"`
	Level       *string `form:"level" json:"level" validate:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
}

// ExerciseInput is one exercise definition inside a set replacement. The
// Choices payload is validated against a per-kind JSON schema by the lesson
// service before persistence.
type ExerciseInput struct {
	Kind           string          `json:"kind" validate:"required,oneof=multiple_choice flashcard text_answer"`
	Prompt         string          `json:"prompt" validate:"required,min=3"`
	ExpectedAnswer string          `json:"expected_answer" validate:"omitempty"`
	Choices        json.RawMessage `json:"choices" validate:"omitempty"`
	Points         int             `json:"points" validate:"gte=0"`
	Explanation    string          `json:"explanation"`
}

// ExerciseSetRequest replaces a lesson's full exercise list in order.
type ExerciseSetRequest struct {
	Exercises []ExerciseInput `json:"exercises" validate:"required,min=1,dive"`
}

// ExerciseResponse is the serialized exercise returned to API clients.
type ExerciseResponse struct {
	ID             uint            `json:"id"`
	LessonID       uint            `json:"lesson_id"`
	Kind           grading.Kind    `json:"kind"`
	Prompt         string          `json:"prompt"`
	ExpectedAnswer string          `json:"expected_answer,omitempty"`
	Choices        json.RawMessage `json:"choices,omitempty"`
	Points         int             `json:"points"`
	Explanation    string          `json:"explanation,omitempty"`
	Position       int             `json:"position"`
}

// LessonResponse is the serialized lesson returned to API clients.
type LessonResponse struct {
	ID          uint               `json:"id"`
	TutorID     uint               `json:"tutor_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Language    string             `json:"language"`
	Level       string             `json:"level"`
	MaterialURL string             `json:"material_url"`
	Exercises   []ExerciseResponse `json:"exercises"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewExerciseResponse converts an exercise model into a DTO.
func NewExerciseResponse(model models.Exercise) ExerciseResponse {
	return ExerciseResponse{
		ID:             model.ID,
		LessonID:       model.LessonID,
		Kind:           model.Kind,
		Prompt:         model.Prompt,
		ExpectedAnswer: model.ExpectedAnswer,
		Choices:        json.RawMessage(model.Choices),
		Points:         model.Points,
		Explanation:    model.Explanation,
		Position:       model.Position,
	}
}

// NewLessonResponse converts a lesson model into a DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	exercises := make([]ExerciseResponse, 0, len(model.Exercises))
	for _, exercise := range model.Exercises {
		exercises = append(exercises, NewExerciseResponse(exercise))
	}

	return LessonResponse{
		ID:          model.ID,
		TutorID:     model.TutorID,
		Title:       model.Title,
		Description: model.Description,
		Language:    model.Language,
		Level:       model.Level,
		MaterialURL: model.MaterialURL,
		Exercises:   exercises,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewLessonResponseSlice converts a slice of lesson models into DTOs.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	responses := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, NewLessonResponse(lesson))
	}

	return responses
}
