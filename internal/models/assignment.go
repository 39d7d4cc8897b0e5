package models

import "time"

// LessonAssignment links a student to a lesson. The LessonID reference is
// deliberately not constrained at the database level: a tutor may delete a
// lesson (or leave the platform) after assignments were created, and the
// dangling assignment remains a valid row the roster reconciler must
// tolerate rather than an integrity error.
type LessonAssignment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	StudentID        uint       `gorm:"index;not null" json:"student_id"`
	LessonID         uint       `gorm:"index;not null" json:"lesson_id"`
	Status           string     `gorm:"size:32;not null;default:assigned" json:"status"`
	Score            *int       `json:"score"`
	Progress         int        `gorm:"not null;default:0" json:"progress"`
	TimeSpentMinutes int        `gorm:"not null;default:0" json:"time_spent_minutes"`
	AssignedAt       time.Time  `gorm:"not null" json:"assigned_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

const (
	// AssignmentStatusAssigned means the student has not started the lesson.
	AssignmentStatusAssigned = "assigned"
	// AssignmentStatusInProgress means the student opened the lesson.
	AssignmentStatusInProgress = "in_progress"
	// AssignmentStatusCompleted means an attempt was submitted.
	AssignmentStatusCompleted = "completed"
)

// IsCompleted reports whether an attempt has already been submitted.
func (a LessonAssignment) IsCompleted() bool {
	return a.Status == AssignmentStatusCompleted
}
