package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/internal/service"
	"github.com/linguaflow/linguaflow-api/internal/utils"
)

// LessonHandler wires lesson HTTP routes.
type LessonHandler struct {
	service   service.LessonService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service service.LessonService, validator *validator.Validate, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register attaches lesson endpoints to the router group. Mutating routes
// are additionally guarded by the provided tutor-only middleware.
func (h *LessonHandler) Register(router fiber.Router, tutorOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", tutorOnly, h.create)
	router.Patch("/:id", tutorOnly, h.update)
	router.Delete("/:id", tutorOnly, h.delete)
	router.Put("/:id/exercises", tutorOnly, h.setExercises)
	router.Post("/:id/assign", tutorOnly, h.assign)
}

func (h *LessonHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	filter := repository.LessonFilter{
		Language: c.Query("language"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Page:     page,
		PageSize: pageSize,
	}

	if c.Query("mine") == "true" {
		tutorID := userIDFromContext(c)
		filter.TutorID = &tutorID
	}

	lessons, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", fiber.Map{
		"lessons": lessons,
		"total":   total,
	})
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	lesson, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrLessonNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	payload := dto.LessonCreateRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Language:    c.FormValue("language"),
		Level:       c.FormValue("level"),
	}

	material, err := c.FormFile("material")
	if err != nil {
		material = nil
	}

	lesson, err := h.service.Create(c.Context(), userIDFromContext(c), payload, material)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *LessonHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.LessonUpdateRequest{}
	if title := c.FormValue("title"); title != "" {
		payload.Title = &title
	}
	if description := c.FormValue("description"); description != "" {
		payload.Description = &description
	}
	if language := c.FormValue("language"); language != "" {
		payload.Language = &language
	}
	if level := c.FormValue("level"); level != "" {
		payload.Level = &level
	}

	material, err := c.FormFile("material")
	if err != nil {
		material = nil
	}

	lesson, err := h.service.Update(c.Context(), id, payload, material)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson updated", lesson)
}

func (h *LessonHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrLessonNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": id})
}

func (h *LessonHandler) setExercises(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExerciseSetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.service.SetExercises(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exercises replaced", lesson)
}

func (h *LessonHandler) assign(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload struct {
		StudentID uint `json:"student_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.StudentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student_id required")
	}

	assignment, err := h.service.Assign(c.Context(), id, payload.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLessonNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson assigned", fiber.Map{
		"assignment_id": assignment.ID,
		"lesson_id":     assignment.LessonID,
		"student_id":    assignment.StudentID,
		"status":        assignment.Status,
	})
}

func (h *LessonHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrInvalidExercise):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedMaterial):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "unsupported material type")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *LessonHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
