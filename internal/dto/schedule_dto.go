package dto

import (
	"time"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// SlotCreateRequest publishes a tutor availability window.
type SlotCreateRequest struct {
	StartsAt string `json:"starts_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt   string `json:"ends_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// SlotResponse is the serialized availability slot.
type SlotResponse struct {
	ID       uint      `json:"id"`
	TutorID  uint      `json:"tutor_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Booked   bool      `json:"booked"`
}

// BookingCreateRequest reserves an open slot for a student.
type BookingCreateRequest struct {
	SlotID   uint   `json:"slot_id" validate:"required"`
	LessonID *uint  `json:"lesson_id"`
	Note     string `json:"note" validate:"omitempty,max=1000"`
}

// BookingResponse is the serialized booking including its slot times.
type BookingResponse struct {
	ID        uint      `json:"id"`
	SlotID    uint      `json:"slot_id"`
	StudentID uint      `json:"student_id"`
	LessonID  *uint     `json:"lesson_id"`
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSlotResponse converts a slot model into a DTO.
func NewSlotResponse(model models.AvailabilitySlot) SlotResponse {
	return SlotResponse{
		ID:       model.ID,
		TutorID:  model.TutorID,
		StartsAt: model.StartsAt,
		EndsAt:   model.EndsAt,
		Booked:   model.Booked,
	}
}

// NewSlotResponseSlice converts a slice of slot models into DTOs.
func NewSlotResponseSlice(slots []models.AvailabilitySlot) []SlotResponse {
	responses := make([]SlotResponse, 0, len(slots))
	for _, slot := range slots {
		responses = append(responses, NewSlotResponse(slot))
	}

	return responses
}

// NewBookingResponse converts a booking and its slot into a DTO.
func NewBookingResponse(booking models.Booking, slot models.AvailabilitySlot) BookingResponse {
	return BookingResponse{
		ID:        booking.ID,
		SlotID:    booking.SlotID,
		StudentID: booking.StudentID,
		LessonID:  booking.LessonID,
		Status:    booking.Status,
		Note:      booking.Note,
		StartsAt:  slot.StartsAt,
		EndsAt:    slot.EndsAt,
		CreatedAt: booking.CreatedAt,
	}
}
