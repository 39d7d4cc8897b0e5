package models

import (
	"time"

	"github.com/linguaflow/linguaflow-api/internal/grading"
)

// LessonAttempt is one student's full pass through a lesson's exercise set,
// created once at submission time. Score is recomputed only when a tutor
// reviews a pending text answer; everything else is immutable afterwards.
type LessonAttempt struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	AssignmentID   uint              `gorm:"uniqueIndex;not null" json:"assignment_id"`
	StudentID      uint              `gorm:"index;not null" json:"student_id"`
	LessonID       uint              `gorm:"index;not null" json:"lesson_id"`
	Score          int               `gorm:"not null" json:"score"`
	AwaitingReview bool              `gorm:"not null;default:false" json:"awaiting_review"`
	SubmittedAt    time.Time         `gorm:"not null" json:"submitted_at"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Answers        []SubmittedAnswer `gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

// SubmittedAnswer is a student's response to one exercise within an attempt.
// IsCorrect for text_answer kinds is a provisional true pending tutor review.
type SubmittedAnswer struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	AttemptID     uint         `gorm:"index;not null" json:"attempt_id"`
	ExerciseID    uint         `gorm:"index;not null" json:"exercise_id"`
	Kind          grading.Kind `gorm:"size:32;not null" json:"kind"`
	Position      int          `gorm:"not null;default:0" json:"position"`
	Value         string       `gorm:"type:text" json:"value"`
	IsCorrect     bool         `gorm:"not null" json:"is_correct"`
	Points        int          `gorm:"not null;default:0" json:"points"`
	ReviewStatus  string       `gorm:"size:32;not null;default:none" json:"review_status"`
	TutorScore    *int         `json:"tutor_score"`
	TutorFeedback string       `gorm:"type:text" json:"tutor_feedback"`
	ReviewedBy    *uint        `json:"reviewed_by"`
	ReviewedAt    *time.Time   `json:"reviewed_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

const (
	// ReviewStatusNone marks answers that never need human review.
	ReviewStatusNone = "none"
	// ReviewStatusPending marks text answers waiting for a tutor score.
	ReviewStatusPending = "pending"
	// ReviewStatusReviewed marks text answers a tutor has scored.
	ReviewStatusReviewed = "reviewed"
)

// IsReviewed reports whether a tutor has assigned a final score.
func (a SubmittedAnswer) IsReviewed() bool {
	return a.ReviewStatus == ReviewStatusReviewed
}

// ReviewHistory records every tutor score assigned to a submitted answer.
type ReviewHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AnswerID   uint      `gorm:"index;not null" json:"answer_id"`
	Score      int       `gorm:"not null" json:"score"`
	Feedback   string    `gorm:"type:text" json:"feedback"`
	ReviewedBy uint      `gorm:"not null" json:"reviewed_by"`
	ReviewedAt time.Time `gorm:"not null" json:"reviewed_at"`
	CreatedAt  time.Time `json:"created_at"`
}
