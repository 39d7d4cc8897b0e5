package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/models"
)

// MessageRepository persists direct messages for history and compliance.
type MessageRepository interface {
	Save(ctx context.Context, message *models.Message) error
	ListByConversation(ctx context.Context, conversationID string, before time.Time, limit int) ([]models.Message, error)
	LatestByConversation(ctx context.Context, conversationID string) (models.Message, error)
	MarkRead(ctx context.Context, conversationID, recipientID string, at time.Time) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Save(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string, before time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to chronological ascending order for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) LatestByConversation(ctx context.Context, conversationID string) (models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at DESC").First(&message).Error
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, conversationID, recipientID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("recipient_id = ?", recipientID).
		Where("read_at IS NULL").
		Update("read_at", at).Error
}
