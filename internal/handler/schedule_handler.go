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

// ScheduleHandler wires availability and booking routes.
type ScheduleHandler struct {
	service   service.ScheduleService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service service.ScheduleService, validator *validator.Validate, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "schedule_handler").Logger(),
	}
}

// Register attaches schedule endpoints to the router group. Slot publication
// is tutor-only; booking routes are student-only.
func (h *ScheduleHandler) Register(router fiber.Router, tutorOnly, studentOnly fiber.Handler) {
	router.Post("/slots", tutorOnly, h.publishSlot)
	router.Get("/tutors/:id/slots", h.listSlots)
	router.Post("/bookings", studentOnly, h.book)
	router.Get("/bookings", studentOnly, h.listBookings)
	router.Delete("/bookings/:id", studentOnly, h.cancel)
}

func (h *ScheduleHandler) publishSlot(c *fiber.Ctx) error {
	var payload dto.SlotCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	slot, err := h.service.PublishSlot(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "slot published", slot)
}

func (h *ScheduleHandler) listSlots(c *fiber.Ctx) error {
	tutorID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	openOnly := c.Query("open") == "true"

	slots, err := h.service.ListSlots(c.Context(), tutorID, openOnly)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "slots retrieved", slots)
}

func (h *ScheduleHandler) book(c *fiber.Ctx) error {
	var payload dto.BookingCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	booking, err := h.service.Book(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "slot booked", booking)
}

func (h *ScheduleHandler) listBookings(c *fiber.Ctx) error {
	bookings, err := h.service.ListBookings(c.Context(), userIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "bookings retrieved", bookings)
}

func (h *ScheduleHandler) cancel(c *fiber.Ctx) error {
	bookingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Cancel(c.Context(), userIDFromContext(c), bookingID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "booking cancelled", fiber.Map{"id": bookingID})
}

func (h *ScheduleHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSlotNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "slot not found")
	case errors.Is(err, service.ErrBookingNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "booking not found")
	case errors.Is(err, service.ErrBookingForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "booking belongs to another student")
	case errors.Is(err, service.ErrSlotInvalidWindow), errors.Is(err, service.ErrSlotInPast):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSlotOverlap), errors.Is(err, service.ErrSlotTaken), errors.Is(err, service.ErrBookingCancelled):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
