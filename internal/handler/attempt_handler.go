package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/service"
	"github.com/linguaflow/linguaflow-api/internal/utils"
)

// AttemptHandler wires attempt submission and retrieval routes.
type AttemptHandler struct {
	service   service.AttemptService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAttemptHandler constructs the handler.
func NewAttemptHandler(service service.AttemptService, validator *validator.Validate, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches attempt endpoints under the assignments group.
func (h *AttemptHandler) Register(router fiber.Router) {
	router.Post("/:id/attempt", h.submit)
	router.Get("/:id/attempt", h.get)
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AttemptSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	attempt, err := h.service.Submit(c.Context(), userIDFromContext(c), assignmentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt submitted", attempt)
}

func (h *AttemptHandler) get(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.GetByAssignment(c.Context(), userIDFromContext(c), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attempt retrieved", attempt)
}

func (h *AttemptHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attempt not found")
	case errors.Is(err, service.ErrAttemptForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "assignment belongs to another student")
	case errors.Is(err, service.ErrAttemptAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "assignment already completed")
	case errors.Is(err, service.ErrLessonGone):
		return utils.SendError(c, fiber.StatusGone, "lesson no longer available")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
