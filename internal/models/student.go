package models

import "time"

// Student represents a learner working through assigned lessons.
type Student struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	NativeLanguage string    `gorm:"size:64" json:"native_language"`
	TargetLanguage string    `gorm:"size:64" json:"target_language"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
