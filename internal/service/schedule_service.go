package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

// ErrSlotNotFound indicates the availability slot does not exist.
var ErrSlotNotFound = errors.New("availability slot not found")

// ErrSlotInvalidWindow indicates the slot times are reversed or zero-length.
var ErrSlotInvalidWindow = errors.New("slot must end after it starts")

// ErrSlotInPast indicates a slot that would already have ended.
var ErrSlotInPast = errors.New("slot must start in the future")

// ErrSlotOverlap indicates the slot collides with an existing slot of the
// same tutor.
var ErrSlotOverlap = errors.New("slot overlaps an existing availability window")

// ErrSlotTaken indicates the slot already has an active booking.
var ErrSlotTaken = errors.New("slot is already booked")

// ErrBookingNotFound indicates the booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrBookingForbidden indicates the booking belongs to another student.
var ErrBookingForbidden = errors.New("booking belongs to another student")

// ErrBookingCancelled indicates the booking has already been cancelled.
var ErrBookingCancelled = errors.New("booking is already cancelled")

// ScheduleService manages tutor availability windows and student bookings.
type ScheduleService interface {
	PublishSlot(ctx context.Context, tutorID uint, payload dto.SlotCreateRequest) (dto.SlotResponse, error)
	ListSlots(ctx context.Context, tutorID uint, openOnly bool) ([]dto.SlotResponse, error)
	Book(ctx context.Context, studentID uint, payload dto.BookingCreateRequest) (dto.BookingResponse, error)
	ListBookings(ctx context.Context, studentID uint) ([]dto.BookingResponse, error)
	Cancel(ctx context.Context, studentID, bookingID uint) error
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewScheduleService constructs the scheduling service.
func NewScheduleService(repo repository.ScheduleRepository, validate *validator.Validate, logger zerolog.Logger) ScheduleService {
	return &scheduleService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "schedule_service").Logger(),
		now:       time.Now,
	}
}

func (s *scheduleService) PublishSlot(ctx context.Context, tutorID uint, payload dto.SlotCreateRequest) (dto.SlotResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SlotResponse{}, err
	}

	startsAt, err := time.Parse(time.RFC3339, payload.StartsAt)
	if err != nil {
		return dto.SlotResponse{}, ErrSlotInvalidWindow
	}
	endsAt, err := time.Parse(time.RFC3339, payload.EndsAt)
	if err != nil {
		return dto.SlotResponse{}, ErrSlotInvalidWindow
	}

	if !endsAt.After(startsAt) {
		return dto.SlotResponse{}, ErrSlotInvalidWindow
	}
	if endsAt.Before(s.now()) {
		return dto.SlotResponse{}, ErrSlotInPast
	}

	candidate := models.AvailabilitySlot{
		TutorID:  tutorID,
		StartsAt: startsAt.UTC(),
		EndsAt:   endsAt.UTC(),
	}

	existing, err := s.repo.ListSlotsByTutor(ctx, tutorID, s.now(), false)
	if err != nil {
		return dto.SlotResponse{}, err
	}
	for _, slot := range existing {
		if candidate.Overlaps(slot) {
			return dto.SlotResponse{}, ErrSlotOverlap
		}
	}

	if err := s.repo.CreateSlot(ctx, &candidate); err != nil {
		return dto.SlotResponse{}, err
	}

	s.logger.Info().Uint("tutor_id", tutorID).Uint("slot_id", candidate.ID).Msg("availability slot published")

	return dto.NewSlotResponse(candidate), nil
}

func (s *scheduleService) ListSlots(ctx context.Context, tutorID uint, openOnly bool) ([]dto.SlotResponse, error) {
	slots, err := s.repo.ListSlotsByTutor(ctx, tutorID, s.now(), openOnly)
	if err != nil {
		return nil, err
	}

	return dto.NewSlotResponseSlice(slots), nil
}

func (s *scheduleService) Book(ctx context.Context, studentID uint, payload dto.BookingCreateRequest) (dto.BookingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BookingResponse{}, err
	}

	slot, err := s.repo.GetSlot(ctx, payload.SlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BookingResponse{}, ErrSlotNotFound
		}
		return dto.BookingResponse{}, err
	}

	if slot.Booked {
		return dto.BookingResponse{}, ErrSlotTaken
	}
	if slot.EndsAt.Before(s.now()) {
		return dto.BookingResponse{}, ErrSlotInPast
	}

	booking := models.Booking{
		SlotID:    slot.ID,
		StudentID: studentID,
		LessonID:  payload.LessonID,
		Status:    models.BookingStatusConfirmed,
		Note:      payload.Note,
	}

	// The repository flips booked and inserts the booking atomically, so two
	// students racing for the same slot cannot both succeed.
	if err := s.repo.CreateBookingForOpenSlot(ctx, &booking); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BookingResponse{}, ErrSlotTaken
		}
		return dto.BookingResponse{}, err
	}
	slot.Booked = true

	s.logger.Info().Uint("student_id", studentID).Uint("slot_id", slot.ID).Uint("booking_id", booking.ID).Msg("slot booked")

	return dto.NewBookingResponse(booking, slot), nil
}

func (s *scheduleService) ListBookings(ctx context.Context, studentID uint) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.ListBookingsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		slot, err := s.repo.GetSlot(ctx, booking.SlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				slot = models.AvailabilitySlot{ID: booking.SlotID}
			} else {
				return nil, err
			}
		}
		responses = append(responses, dto.NewBookingResponse(booking, slot))
	}

	return responses, nil
}

func (s *scheduleService) Cancel(ctx context.Context, studentID, bookingID uint) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	if booking.StudentID != studentID {
		return ErrBookingForbidden
	}
	if booking.Status == models.BookingStatusCancelled {
		return ErrBookingCancelled
	}

	booking.Status = models.BookingStatusCancelled
	if err := s.repo.UpdateBooking(ctx, &booking); err != nil {
		return err
	}

	slot, err := s.repo.GetSlot(ctx, booking.SlotID)
	if err == nil {
		slot.Booked = false
		if err := s.repo.UpdateSlot(ctx, &slot); err != nil {
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	s.logger.Info().Uint("student_id", studentID).Uint("booking_id", bookingID).Msg("booking cancelled")

	return nil
}
