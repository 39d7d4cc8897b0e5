package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Tutor{},
		&models.Student{},
		&models.Lesson{},
		&models.Exercise{},
		&models.LessonAssignment{},
		&models.LessonAttempt{},
		&models.SubmittedAnswer{},
		&models.ReviewHistory{},
		&models.AvailabilitySlot{},
		&models.Booking{},
	))
	return db
}

func TestLessonRepositoryListFiltersByLanguageAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)

	french := models.Lesson{TutorID: 1, Title: "Passé composé basics", Description: "Core past tense forms", Language: "French", Level: "A2"}
	spanish := models.Lesson{TutorID: 2, Title: "Subjunctive mood", Description: "When feelings demand it", Language: "Spanish", Level: "B2"}
	require.NoError(t, db.Create(&french).Error)
	require.NoError(t, db.Create(&spanish).Error)

	lessons, total, err := repo.ListWithFilter(context.Background(), LessonFilter{Language: "french", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, lessons, 1)
	require.Equal(t, "Passé composé basics", lessons[0].Title)

	lessons, total, err = repo.ListWithFilter(context.Background(), LessonFilter{Search: "subjunctive", PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, spanish.ID, lessons[0].ID)
}

func TestLessonRepositoryGetByIDsReturnsExistingSubset(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)

	lesson := models.Lesson{TutorID: 1, Title: "Greetings", Description: "Hello and goodbye", Language: "German"}
	require.NoError(t, db.Create(&lesson).Error)

	lessons, err := repo.GetByIDs(context.Background(), []uint{lesson.ID, lesson.ID + 100})
	require.NoError(t, err)
	require.Len(t, lessons, 1, "missing ids must be silently absent, not an error")
	require.Equal(t, lesson.ID, lessons[0].ID)

	lessons, err = repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, lessons)
}

func TestLessonRepositoryReplaceExercisesKeepsOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonRepository(db)

	lesson := models.Lesson{TutorID: 1, Title: "Articles", Description: "der, die, das", Language: "German"}
	require.NoError(t, db.Create(&lesson).Error)

	first := []models.Exercise{
		{Kind: grading.KindMultipleChoice, Prompt: "Pick the article for Haus", ExpectedAnswer: "C", Points: 10},
		{Kind: grading.KindTextAnswer, Prompt: "Describe your home", Points: 5},
	}
	require.NoError(t, repo.ReplaceExercises(context.Background(), lesson.ID, first))

	replacement := []models.Exercise{
		{Kind: grading.KindFlashcard, Prompt: "Review the article cards", Points: 0},
		{Kind: grading.KindMultipleChoice, Prompt: "Pick the article for Tür", ExpectedAnswer: "B", Points: 10},
		{Kind: grading.KindTextAnswer, Prompt: "Write three sentences", Points: 5},
	}
	require.NoError(t, repo.ReplaceExercises(context.Background(), lesson.ID, replacement))

	stored, err := repo.GetByID(context.Background(), lesson.ID)
	require.NoError(t, err)
	require.Len(t, stored.Exercises, 3)
	for i, exercise := range stored.Exercises {
		require.Equal(t, i, exercise.Position)
	}
	require.Equal(t, grading.KindFlashcard, stored.Exercises[0].Kind)
}

func TestAssignmentRepositoryListPreservesAssignedOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	base := time.Now().Add(-3 * time.Hour)
	for i := 0; i < 3; i++ {
		assignment := models.LessonAssignment{
			StudentID:  7,
			LessonID:   uint(10 + i),
			Status:     models.AssignmentStatusAssigned,
			AssignedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(context.Background(), &assignment))
	}

	studentID := uint(7)
	assignments, err := repo.List(context.Background(), AssignmentFilter{StudentID: &studentID})
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	require.Equal(t, uint(10), assignments[0].LessonID)
	require.Equal(t, uint(12), assignments[2].LessonID)
}

func TestAttemptRepositoryPendingAnswerCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepository(db)

	attempt := models.LessonAttempt{
		AssignmentID: 1,
		StudentID:    7,
		LessonID:     10,
		Score:        80,
		SubmittedAt:  time.Now(),
		Answers: []models.SubmittedAnswer{
			{ExerciseID: 1, Kind: grading.KindMultipleChoice, Position: 0, Value: "B", IsCorrect: true, Points: 10, ReviewStatus: models.ReviewStatusNone},
			{ExerciseID: 2, Kind: grading.KindTextAnswer, Position: 1, Value: "my essay", IsCorrect: true, Points: 5, ReviewStatus: models.ReviewStatusPending},
		},
	}
	require.NoError(t, repo.Create(context.Background(), &attempt))

	pending, err := repo.CountPendingAnswers(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	stored, err := repo.GetByAssignment(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 2)
	require.Equal(t, 0, stored.Answers[0].Position)

	answer := stored.Answers[1]
	answer.ReviewStatus = models.ReviewStatusReviewed
	require.NoError(t, repo.UpdateAnswer(context.Background(), &answer))

	pending, err = repo.CountPendingAnswers(context.Background(), attempt.ID)
	require.NoError(t, err)
	require.Zero(t, pending)
}
