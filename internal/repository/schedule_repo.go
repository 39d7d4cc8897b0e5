package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// ScheduleRepository defines persistence operations for availability slots
// and bookings.
type ScheduleRepository interface {
	CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error
	GetSlot(ctx context.Context, id uint) (models.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot) error
	ListSlotsByTutor(ctx context.Context, tutorID uint, from time.Time, openOnly bool) ([]models.AvailabilitySlot, error)
	CreateBookingForOpenSlot(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id uint) (models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	ListBookingsByStudent(ctx context.Context, studentID uint) ([]models.Booking, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository instantiates the repository.
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) CreateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *scheduleRepository) GetSlot(ctx context.Context, id uint) (models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return models.AvailabilitySlot{}, err
	}

	return slot, nil
}

func (r *scheduleRepository) UpdateSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *scheduleRepository) ListSlotsByTutor(ctx context.Context, tutorID uint, from time.Time, openOnly bool) ([]models.AvailabilitySlot, error) {
	query := r.db.WithContext(ctx).Where("tutor_id = ?", tutorID)
	if !from.IsZero() {
		query = query.Where("ends_at > ?", from)
	}
	if openOnly {
		query = query.Where("booked = ?", false)
	}

	var slots []models.AvailabilitySlot
	if err := query.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}

	return slots, nil
}

// CreateBookingForOpenSlot marks the slot as booked and stores the booking in
// a single transaction. The guarded update ensures only one booking can claim
// a slot; callers racing for the same slot get gorm.ErrRecordNotFound.
func (r *scheduleRepository) CreateBookingForOpenSlot(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AvailabilitySlot{}).
			Where("id = ? AND booked = ?", booking.SlotID, false).
			Update("booked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(booking).Error
	})
}

func (r *scheduleRepository) GetBooking(ctx context.Context, id uint) (models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return models.Booking{}, err
	}

	return booking, nil
}

func (r *scheduleRepository) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

func (r *scheduleRepository) ListBookingsByStudent(ctx context.Context, studentID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}

	return bookings, nil
}
