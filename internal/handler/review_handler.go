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

// ReviewHandler wires tutor review routes for text answers.
type ReviewHandler struct {
	service   service.ReviewService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service service.ReviewService, validator *validator.Validate, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches review endpoints to the router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Post("/answers/:id", h.review)
	router.Get("/answers/:id/draft", h.draft)
}

func (h *ReviewHandler) review(c *fiber.Ctx) error {
	answerID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := service.ReviewActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}

	reviewed, err := h.service.Review(c.Context(), answerID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer reviewed", reviewed)
}

func (h *ReviewHandler) draft(c *fiber.Ctx) error {
	answerID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	draft, err := h.service.DraftFeedback(c.Context(), answerID)
	if err != nil {
		if errors.Is(err, service.ErrDrafterUnavailable) {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "feedback drafting unavailable")
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback drafted", draft)
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAnswerNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "answer not found")
	case errors.Is(err, service.ErrAnswerNotReviewable):
		return utils.SendError(c, fiber.StatusConflict, "answer does not require review")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
