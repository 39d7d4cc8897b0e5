package models

import "time"

// Message is a single direct message between a tutor and a student. The
// conversation id groups the two participants' exchange; bodies are
// sanitized before persistence.
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID string     `gorm:"size:128;index;not null" json:"conversation_id"`
	SenderID       string     `gorm:"size:64;index;not null" json:"sender_id"`
	SenderRole     string     `gorm:"size:32;not null" json:"sender_role"`
	RecipientID    string     `gorm:"size:64;index" json:"recipient_id"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
