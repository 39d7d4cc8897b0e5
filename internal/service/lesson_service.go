package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/grading"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

// ErrLessonNotFound indicates the requested lesson does not exist.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrStudentNotFound indicates the assignment target student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrInvalidExercise indicates an exercise definition failed per-kind
// content validation.
var ErrInvalidExercise = errors.New("invalid exercise definition")

// ErrUnsupportedMaterial indicates the uploaded material has a content type
// outside the allowlist.
var ErrUnsupportedMaterial = errors.New("unsupported material content type")

// FileUploader stores a lesson material file and returns its public URL.
// A zero lessonID means the lesson has not been persisted yet.
type FileUploader interface {
	UploadMaterial(ctx context.Context, tutorID, lessonID uint, filename string, reader io.Reader) (string, error)
}

// Choices payloads are structurally validated per exercise kind before they
// reach the database, so graders can rely on the shape matching the kind.
const multipleChoiceChoicesSchema = `{
	"type": "array",
	"minItems": 2,
	"items": {"type": "string", "minLength": 1}
}`

const flashcardChoicesSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["front", "back"],
		"properties": {
			"front": {"type": "string", "minLength": 1},
			"back": {"type": "string", "minLength": 1}
		}
	}
}`

// LessonService exposes lesson authoring and assignment use cases.
type LessonService interface {
	List(ctx context.Context, filter repository.LessonFilter) ([]dto.LessonResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.LessonResponse, error)
	Create(ctx context.Context, tutorID uint, payload dto.LessonCreateRequest, material *multipart.FileHeader) (dto.LessonResponse, error)
	Update(ctx context.Context, id uint, payload dto.LessonUpdateRequest, material *multipart.FileHeader) (dto.LessonResponse, error)
	Delete(ctx context.Context, id uint) error
	SetExercises(ctx context.Context, lessonID uint, payload dto.ExerciseSetRequest) (dto.LessonResponse, error)
	Assign(ctx context.Context, lessonID, studentID uint) (models.LessonAssignment, error)
}

type lessonService struct {
	lessons     repository.LessonRepository
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	validator   *validator.Validate
	uploader    FileUploader
	mcSchema    *jsonschema.Schema
	fcSchema    *jsonschema.Schema
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLessonService builds a new lesson service.
func NewLessonService(lessons repository.LessonRepository, assignments repository.AssignmentRepository, students repository.StudentRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) LessonService {
	return &lessonService{
		lessons:     lessons,
		assignments: assignments,
		students:    students,
		validator:   validate,
		uploader:    uploader,
		mcSchema:    jsonschema.MustCompileString("multiple_choice_choices.json", multipleChoiceChoicesSchema),
		fcSchema:    jsonschema.MustCompileString("flashcard_choices.json", flashcardChoicesSchema),
		logger:      logger.With().Str("component", "lesson_service").Logger(),
		now:         time.Now,
	}
}

func (s *lessonService) List(ctx context.Context, filter repository.LessonFilter) ([]dto.LessonResponse, int64, error) {
	lessons, total, err := s.lessons.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewLessonResponseSlice(lessons), total, nil
}

func (s *lessonService) Get(ctx context.Context, id uint) (dto.LessonResponse, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}

		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Create(ctx context.Context, tutorID uint, payload dto.LessonCreateRequest, material *multipart.FileHeader) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson := models.Lesson{
		TutorID:     tutorID,
		Title:       payload.Title,
		Description: payload.Description,
		Language:    payload.Language,
		Level:       payload.Level,
	}

	if material != nil {
		url, err := s.uploadMaterial(ctx, tutorID, 0, material)
		if err != nil {
			return dto.LessonResponse{}, err
		}
		lesson.MaterialURL = url
	}

	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("tutor_id", tutorID).Msg("lesson created")

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Update(ctx context.Context, id uint, payload dto.LessonUpdateRequest, material *multipart.FileHeader) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}

		return dto.LessonResponse{}, err
	}

	if payload.Title != nil {
		lesson.Title = *payload.Title
	}

	if payload.Description != nil {
		lesson.Description = *payload.Description
	}

	if payload.Language != nil {
		lesson.Language = *payload.Language
	}

	if payload.Level != nil {
		lesson.Level = *payload.Level
	}

	if material != nil {
		url, err := s.uploadMaterial(ctx, lesson.TutorID, lesson.ID, material)
		if err != nil {
			return dto.LessonResponse{}, err
		}
		lesson.MaterialURL = url
	}

	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Msg("lesson updated")

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Delete(ctx context.Context, id uint) error {
	if err := s.lessons.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	s.logger.Info().Uint("lesson_id", id).Msg("lesson deleted")
	return nil
}

func (s *lessonService) SetExercises(ctx context.Context, lessonID uint, payload dto.ExerciseSetRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	if _, err := s.lessons.GetByID(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}
		return dto.LessonResponse{}, err
	}

	exercises := make([]models.Exercise, 0, len(payload.Exercises))
	for i, input := range payload.Exercises {
		exercise, err := s.buildExercise(input)
		if err != nil {
			return dto.LessonResponse{}, fmt.Errorf("exercise %d: %w", i+1, err)
		}
		exercises = append(exercises, exercise)
	}

	if err := s.lessons.ReplaceExercises(ctx, lessonID, exercises); err != nil {
		return dto.LessonResponse{}, err
	}

	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lessonID).Int("exercises", len(exercises)).Msg("exercise set replaced")

	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Assign(ctx context.Context, lessonID, studentID uint) (models.LessonAssignment, error) {
	if _, err := s.lessons.GetByID(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LessonAssignment{}, ErrLessonNotFound
		}
		return models.LessonAssignment{}, err
	}

	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LessonAssignment{}, ErrStudentNotFound
		}
		return models.LessonAssignment{}, err
	}

	assignment := models.LessonAssignment{
		StudentID:  studentID,
		LessonID:   lessonID,
		Status:     models.AssignmentStatusAssigned,
		AssignedAt: s.now(),
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return models.LessonAssignment{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("lesson_id", lessonID).Uint("student_id", studentID).Msg("lesson assigned")

	return assignment, nil
}

func (s *lessonService) buildExercise(input dto.ExerciseInput) (models.Exercise, error) {
	kind := grading.Kind(input.Kind)

	switch kind {
	case grading.KindMultipleChoice:
		if input.ExpectedAnswer == "" {
			return models.Exercise{}, fmt.Errorf("%w: multiple_choice requires an expected answer", ErrInvalidExercise)
		}
		if err := s.validateChoices(s.mcSchema, input.Choices); err != nil {
			return models.Exercise{}, err
		}
	case grading.KindFlashcard:
		if err := s.validateChoices(s.fcSchema, input.Choices); err != nil {
			return models.Exercise{}, err
		}
	case grading.KindTextAnswer:
		if len(input.Choices) > 0 {
			return models.Exercise{}, fmt.Errorf("%w: text_answer must not carry choices", ErrInvalidExercise)
		}
	default:
		return models.Exercise{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidExercise, input.Kind)
	}

	return models.Exercise{
		Kind:           kind,
		Prompt:         input.Prompt,
		ExpectedAnswer: input.ExpectedAnswer,
		Choices:        datatypes.JSON(input.Choices),
		Points:         input.Points,
		Explanation:    input.Explanation,
	}, nil
}

func (s *lessonService) validateChoices(schema *jsonschema.Schema, raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: choices payload is required", ErrInvalidExercise)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("%w: choices is not valid JSON", ErrInvalidExercise)
	}

	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExercise, err)
	}

	return nil
}

var allowedMaterialTypes = []string{"application/pdf", "image/", "audio/"}

func (s *lessonService) uploadMaterial(ctx context.Context, tutorID, lessonID uint, material *multipart.FileHeader) (string, error) {
	src, err := material.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open material: %w", err)
	}
	defer src.Close()

	head := make([]byte, 3072)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read material: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !materialTypeAllowed(detected.String()) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMaterial, detected.String())
	}

	reader := io.MultiReader(bytes.NewReader(head), src)
	url, err := s.uploader.UploadMaterial(ctx, tutorID, lessonID, material.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload material: %w", err)
	}

	return url, nil
}

func materialTypeAllowed(detected string) bool {
	for _, allowed := range allowedMaterialTypes {
		if detected == allowed || strings.HasPrefix(detected, allowed) {
			return true
		}
	}
	return false
}
