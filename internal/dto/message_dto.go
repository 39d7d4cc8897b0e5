package dto

import (
	"time"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// MessageSendRequest is a direct message posted over REST or the websocket.
type MessageSendRequest struct {
	ConversationID string `json:"conversation_id" validate:"omitempty,max=128"`
	RecipientID    string `json:"recipient_id" validate:"required,max=64"`
	Body           string `json:"body" validate:"required,max=4000"`
}

// MessageHistoryQuery pages through a conversation's history.
type MessageHistoryQuery struct {
	ConversationID string     `query:"conversation_id" validate:"required,max=128"`
	Before         *time.Time `query:"before"`
	Limit          int        `query:"limit" validate:"gte=0,lte=100"`
}

// MessageResponse is the serialized message delivered to clients.
type MessageResponse struct {
	ID             uint       `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	SenderRole     string     `json:"sender_role"`
	RecipientID    string     `json:"recipient_id"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewMessageResponse converts a message model into a DTO.
func NewMessageResponse(model models.Message) MessageResponse {
	return MessageResponse{
		ID:             model.ID,
		ConversationID: model.ConversationID,
		SenderID:       model.SenderID,
		SenderRole:     model.SenderRole,
		RecipientID:    model.RecipientID,
		Body:           model.Body,
		ReadAt:         model.ReadAt,
		CreatedAt:      model.CreatedAt,
	}
}

// NewMessageResponseSlice converts a slice of message models into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, NewMessageResponse(message))
	}

	return responses
}
