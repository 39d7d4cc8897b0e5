package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

func newLessonService(t *testing.T, db *gorm.DB) LessonService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewLessonService(
		repository.NewLessonRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewStudentRepository(db),
		validate,
		nil,
		zerolog.Nop(),
	)
}

func validExerciseSet() dto.ExerciseSetRequest {
	return dto.ExerciseSetRequest{
		Exercises: []dto.ExerciseInput{
			{
				Kind:           string(grading.KindMultipleChoice),
				Prompt:         "How do you say 'bread' in French?",
				ExpectedAnswer: "le pain",
				Choices:        json.RawMessage(`["le pain", "le vin", "le lait"]`),
				Points:         10,
			},
			{
				Kind:    string(grading.KindFlashcard),
				Prompt:  "Review the bakery vocabulary deck.",
				Choices: json.RawMessage(`[{"front": "le pain", "back": "bread"}]`),
			},
			{
				Kind:   string(grading.KindTextAnswer),
				Prompt: "Describe your last visit to a boulangerie.",
				Points: 5,
			},
		},
	}
}

func TestLessonCreateAndValidation(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLessonService(t, db)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, 1, dto.LessonCreateRequest{
		Title:       "French Bakery Vocabulary",
		Description: "Core vocabulary for ordering at a boulangerie.",
		Language:    "fr",
		Level:       "A2",
	}, nil)
	require.NoError(t, err)
	require.NotZero(t, lesson.ID)
	require.Equal(t, uint(1), lesson.TutorID)
	require.Equal(t, "A2", lesson.Level)

	_, err = svc.Create(ctx, 1, dto.LessonCreateRequest{Title: "x"}, nil)
	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestSetExercisesPersistsInOrder(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLessonService(t, db)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, 1, dto.LessonCreateRequest{
		Title:       "French Bakery Vocabulary",
		Description: "Core vocabulary for ordering at a boulangerie.",
		Language:    "fr",
	}, nil)
	require.NoError(t, err)

	updated, err := svc.SetExercises(ctx, lesson.ID, validExerciseSet())
	require.NoError(t, err)
	require.Len(t, updated.Exercises, 3)
	require.Equal(t, grading.KindMultipleChoice, updated.Exercises[0].Kind)
	require.Equal(t, grading.KindFlashcard, updated.Exercises[1].Kind)
	require.Equal(t, grading.KindTextAnswer, updated.Exercises[2].Kind)
	for i, exercise := range updated.Exercises {
		require.Equal(t, i, exercise.Position)
	}

	// Replacement swaps the whole set, never appends.
	replacement := dto.ExerciseSetRequest{Exercises: validExerciseSet().Exercises[:1]}
	updated, err = svc.SetExercises(ctx, lesson.ID, replacement)
	require.NoError(t, err)
	require.Len(t, updated.Exercises, 1)

	_, err = svc.SetExercises(ctx, 999999, validExerciseSet())
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestSetExercisesRejectsInvalidDefinitions(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLessonService(t, db)
	ctx := context.Background()

	lesson, err := svc.Create(ctx, 1, dto.LessonCreateRequest{
		Title:       "French Bakery Vocabulary",
		Description: "Core vocabulary for ordering at a boulangerie.",
		Language:    "fr",
	}, nil)
	require.NoError(t, err)

	cases := []struct {
		name  string
		input dto.ExerciseInput
	}{
		{
			name: "multiple choice without expected answer",
			input: dto.ExerciseInput{
				Kind:    string(grading.KindMultipleChoice),
				Prompt:  "Pick the right article.",
				Choices: json.RawMessage(`["le", "la"]`),
			},
		},
		{
			name: "multiple choice with a single option",
			input: dto.ExerciseInput{
				Kind:           string(grading.KindMultipleChoice),
				Prompt:         "Pick the right article.",
				ExpectedAnswer: "le",
				Choices:        json.RawMessage(`["le"]`),
			},
		},
		{
			name: "flashcard missing back side",
			input: dto.ExerciseInput{
				Kind:    string(grading.KindFlashcard),
				Prompt:  "Review the deck.",
				Choices: json.RawMessage(`[{"front": "le pain"}]`),
			},
		},
		{
			name: "text answer carrying choices",
			input: dto.ExerciseInput{
				Kind:    string(grading.KindTextAnswer),
				Prompt:  "Write three sentences.",
				Choices: json.RawMessage(`["should", "not", "be", "here"]`),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SetExercises(ctx, lesson.ID, dto.ExerciseSetRequest{Exercises: []dto.ExerciseInput{tc.input}})
			require.ErrorIs(t, err, ErrInvalidExercise)
		})
	}

	// An unknown kind is stopped by payload validation before it reaches
	// the per-kind checks.
	_, err = svc.SetExercises(ctx, lesson.ID, dto.ExerciseSetRequest{Exercises: []dto.ExerciseInput{{
		Kind:   "essay",
		Prompt: "Write an essay.",
	}}})
	require.Error(t, err)
}

func TestAssignLesson(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLessonService(t, db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Student{Name: "Ana Silva", Email: "ana@example.com", TargetLanguage: "fr"}).Error)

	lesson, err := svc.Create(ctx, 1, dto.LessonCreateRequest{
		Title:       "French Bakery Vocabulary",
		Description: "Core vocabulary for ordering at a boulangerie.",
		Language:    "fr",
	}, nil)
	require.NoError(t, err)

	assignment, err := svc.Assign(ctx, lesson.ID, 1)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentStatusAssigned, assignment.Status)
	require.Equal(t, lesson.ID, assignment.LessonID)
	require.False(t, assignment.AssignedAt.IsZero())

	_, err = svc.Assign(ctx, 999999, 1)
	require.ErrorIs(t, err, ErrLessonNotFound)

	_, err = svc.Assign(ctx, lesson.ID, 999999)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
