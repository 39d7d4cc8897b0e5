package models

import "time"

// AvailabilitySlot is a window of time a tutor offers for live sessions.
type AvailabilitySlot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TutorID   uint      `gorm:"index;not null" json:"tutor_id"`
	StartsAt  time.Time `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time `gorm:"not null" json:"ends_at"`
	Booked    bool      `gorm:"not null;default:false" json:"booked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps reports whether two slots share any span of time.
func (s AvailabilitySlot) Overlaps(other AvailabilitySlot) bool {
	return s.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(s.EndsAt)
}

// Booking reserves a tutor's availability slot for a student, optionally
// tied to a specific lesson.
type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SlotID    uint      `gorm:"index;not null" json:"slot_id"`
	StudentID uint      `gorm:"index;not null" json:"student_id"`
	LessonID  *uint     `json:"lesson_id"`
	Status    string    `gorm:"size:32;not null;default:confirmed" json:"status"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// BookingStatusConfirmed is an active reservation.
	BookingStatusConfirmed = "confirmed"
	// BookingStatusCancelled frees the underlying slot.
	BookingStatusCancelled = "cancelled"
)
