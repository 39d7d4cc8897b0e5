package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/internal/service"
	"github.com/linguaflow/linguaflow-api/internal/utils"
)

// TutorHandler wires the public tutor directory routes.
type TutorHandler struct {
	service service.TutorDirectoryService
	logger  zerolog.Logger
}

// NewTutorHandler constructs the handler.
func NewTutorHandler(service service.TutorDirectoryService, logger zerolog.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		logger:  logger.With().Str("component", "tutor_handler").Logger(),
	}
}

// Register attaches tutor directory endpoints to the router group.
func (h *TutorHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *TutorHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	filter := repository.TutorFilter{
		Language: c.Query("language"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	directory, err := h.service.List(c.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "tutors retrieved", directory)
}

func (h *TutorHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tutor, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTutorNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "tutor not found")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "tutor retrieved", tutor)
}
