package models

import "time"

// Tutor represents a language tutor offering lessons on the marketplace.
type Tutor struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `gorm:"size:128;not null" json:"first_name"`
	LastName   string    `gorm:"size:128;not null" json:"last_name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Bio        string    `gorm:"type:text" json:"bio"`
	Languages  string    `gorm:"size:255" json:"languages"`
	HourlyRate float64   `json:"hourly_rate"`
	AvatarURL  string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FullName joins the tutor's first and last name for display.
func (t Tutor) FullName() string {
	return t.FirstName + " " + t.LastName
}
