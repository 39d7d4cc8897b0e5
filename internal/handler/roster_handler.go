package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/service"
	"github.com/linguaflow/linguaflow-api/internal/utils"
)

// RosterHandler wires the student roster routes.
type RosterHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service service.RosterService, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		logger:  logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register attaches roster endpoints to the router group.
func (h *RosterHandler) Register(router fiber.Router) {
	router.Get("", h.get)
	router.Delete("/assignments/:id", h.removeOrphan)
}

func (h *RosterHandler) get(c *fiber.Ctx) error {
	roster, err := h.service.GetRoster(c.Context(), userIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "roster retrieved", roster)
}

func (h *RosterHandler) removeOrphan(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveOrphan(c.Context(), userIDFromContext(c), assignmentID); err != nil {
		switch {
		case errors.Is(err, service.ErrRosterAssignmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		case errors.Is(err, service.ErrAssignmentNotOrphaned):
			return utils.SendError(c, fiber.StatusConflict, "assignment still has a live lesson")
		default:
			h.logger.Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "orphaned assignment removed", fiber.Map{"id": assignmentID})
}
