package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/config"
	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/handler"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/internal/router"
	"github.com/linguaflow/linguaflow-api/internal/service"
)

// setupStudentApp assembles the API with real services over sqlite and an
// auth stub standing in for JWT verification.
func setupStudentApp(t *testing.T, userID uint, role string) (*fiber.App, *gorm.DB) {
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
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	attemptRepo := repository.NewAttemptRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	tutorRepo := repository.NewTutorRepository(db)

	rosterService := service.NewRosterService(assignmentRepo, lessonRepo, tutorRepo, nil, 0, logger)
	attemptService := service.NewAttemptService(attemptRepo, assignmentRepo, lessonRepo, rosterService, validate, logger)

	app := fiber.New()

	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		AttemptHandler: handler.NewAttemptHandler(attemptService, validate, logger),
		RosterHandler:  handler.NewRosterHandler(rosterService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return app, db
}

func seedAssignment(t *testing.T, db *gorm.DB, studentID uint) (models.Lesson, models.LessonAssignment) {
	t.Helper()

	lesson := models.Lesson{TutorID: 1, Title: "Food vocabulary", Description: "Ordering at a restaurant", Language: "French"}
	require.NoError(t, db.Create(&lesson).Error)

	exercises := []models.Exercise{
		{LessonID: lesson.ID, Kind: grading.KindMultipleChoice, Prompt: "Translate 'bread'", ExpectedAnswer: "le pain", Points: 10, Position: 0},
		{LessonID: lesson.ID, Kind: grading.KindTextAnswer, Prompt: "Describe your favourite meal", Points: 5, Position: 1},
	}
	for i := range exercises {
		require.NoError(t, db.Create(&exercises[i]).Error)
	}
	lesson.Exercises = exercises

	assignment := models.LessonAssignment{StudentID: studentID, LessonID: lesson.ID, Status: models.AssignmentStatusAssigned, AssignedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&assignment).Error)

	return lesson, assignment
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func TestAttemptHandlerSubmitAndGet(t *testing.T) {
	app, db := setupStudentApp(t, 7, "student")
	lesson, assignment := seedAssignment(t, db, 7)

	getReq := httptest.NewRequest("GET", "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, getResp.StatusCode)

	payload := dto.AttemptSubmitRequest{
		Answers: []dto.AnswerInput{
			{ExerciseID: lesson.Exercises[0].ID, Value: "le pain"},
			{ExerciseID: lesson.Exercises[1].ID, Value: "J'adore le couscous."},
		},
		TimeSpentMinutes: 9,
	}

	resp := postJSON(t, app, "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submitBody struct {
		Success bool                `json:"success"`
		Data    dto.AttemptResponse `json:"data"`
		Message string              `json:"message"`
	}
	decodeResponse(t, resp, &submitBody)
	require.True(t, submitBody.Success)
	require.Equal(t, "attempt submitted", submitBody.Message)
	require.Equal(t, 100, submitBody.Data.Score)
	require.True(t, submitBody.Data.AwaitingReview)

	// Resubmitting a completed assignment conflicts.
	resp = postJSON(t, app, "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", payload)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	getResp, err = app.Test(httptest.NewRequest("GET", "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)

	var getBody struct {
		Success bool                `json:"success"`
		Data    dto.AttemptResponse `json:"data"`
	}
	decodeResponse(t, getResp, &getBody)
	require.Equal(t, submitBody.Data.ID, getBody.Data.ID)
}

func TestAttemptHandlerRejectsOtherStudents(t *testing.T) {
	app, db := setupStudentApp(t, 7, "student")
	lesson, assignment := seedAssignment(t, db, 8)

	payload := dto.AttemptSubmitRequest{
		Answers: []dto.AnswerInput{{ExerciseID: lesson.Exercises[0].ID, Value: "le pain"}},
	}

	resp := postJSON(t, app, "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", payload)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/assignments/999999/attempt", payload)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAttemptRoutesRequireStudentRole(t *testing.T) {
	app, db := setupStudentApp(t, 1, "tutor")
	lesson, assignment := seedAssignment(t, db, 7)

	payload := dto.AttemptSubmitRequest{
		Answers: []dto.AnswerInput{{ExerciseID: lesson.Exercises[0].ID, Value: "le pain"}},
	}

	resp := postJSON(t, app, "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", payload)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRosterHandlerReflectsSubmissions(t *testing.T) {
	app, db := setupStudentApp(t, 7, "student")
	lesson, assignment := seedAssignment(t, db, 7)
	require.NoError(t, db.Create(&models.Tutor{ID: 1, FirstName: "Claire", LastName: "Martin", Email: "claire@example.com"}).Error)

	payload := dto.AttemptSubmitRequest{
		Answers: []dto.AnswerInput{
			{ExerciseID: lesson.Exercises[0].ID, Value: "le pain"},
			{ExerciseID: lesson.Exercises[1].ID, Value: "Une soupe."},
		},
	}
	resp := postJSON(t, app, "/api/v1/assignments/"+itoa(assignment.ID)+"/attempt", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	rosterResp, err := app.Test(httptest.NewRequest("GET", "/api/v1/roster", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, rosterResp.StatusCode)

	var rosterBody struct {
		Success bool               `json:"success"`
		Data    dto.RosterResponse `json:"data"`
	}
	decodeResponse(t, rosterResp, &rosterBody)
	require.True(t, rosterBody.Success)
	require.Len(t, rosterBody.Data.Entries, 1)
	require.Equal(t, models.AssignmentStatusCompleted, rosterBody.Data.Entries[0].Status)
	require.False(t, rosterBody.Data.Entries[0].Orphaned)

	// A live assignment cannot be removed through the orphan cleanup route.
	deleteReq := httptest.NewRequest("DELETE", "/api/v1/roster/assignments/"+itoa(assignment.ID), nil)
	deleteResp, err := app.Test(deleteReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, deleteResp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
