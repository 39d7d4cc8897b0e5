package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/linguaflow/linguaflow-api/internal/grading"
)

// Lesson is a unit of tutoring content a tutor publishes and assigns.
type Lesson struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TutorID     uint       `gorm:"index;not null" json:"tutor_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Language    string     `gorm:"size:64;not null" json:"language"`
	Level       string     `gorm:"size:32" json:"level"`
	MaterialURL string     `gorm:"size:512" json:"material_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Exercises   []Exercise `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exercises"`
}

// Exercise is a single assessment item within a lesson. Which of
// ExpectedAnswer and Choices carry meaning depends on Kind: multiple_choice
// uses both (Choices is a JSON string array of options, ExpectedAnswer the
// correct option letter), flashcard uses Choices only (JSON array of
// {front, back} pairs), text_answer uses ExpectedAnswer as a sample solution.
type Exercise struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	LessonID       uint           `gorm:"index;not null" json:"lesson_id"`
	Kind           grading.Kind   `gorm:"size:32;not null" json:"kind"`
	Prompt         string         `gorm:"type:text;not null" json:"prompt"`
	ExpectedAnswer string         `gorm:"type:text" json:"expected_answer"`
	Choices        datatypes.JSON `gorm:"type:json" json:"choices"`
	Points         int            `gorm:"not null;default:0" json:"points"`
	Explanation    string         `gorm:"type:text" json:"explanation"`
	Position       int            `gorm:"not null;default:0" json:"position"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
