package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

// newMessageService wires the service without Redis or NATS; fan-out is a
// no-op and persistence plus in-process delivery still work.
func newMessageService(t *testing.T, db *gorm.DB) MessageService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewMessageService(repository.NewMessageRepository(db), nil, "", nil, validate, zerolog.Nop())
}

func TestConversationIDIsOrderIndependent(t *testing.T) {
	require.Equal(t, "conv:11:42", ConversationID("42", "11"))
	require.Equal(t, "conv:11:42", ConversationID("11", "42"))
}

func TestSendSanitizesAndPersists(t *testing.T) {
	db := setupServiceDB(t)
	svc := newMessageService(t, db)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "42", "tutor", dto.MessageSendRequest{
		RecipientID: "11",
		Body:        `Bonjour! <script>alert("x")</script><b>Great work</b> on the attempt.`,
	})
	require.NoError(t, err)
	require.Equal(t, "conv:11:42", sent.ConversationID)
	require.Equal(t, "42", sent.SenderID)
	require.Equal(t, "tutor", sent.SenderRole)
	require.NotContains(t, sent.Body, "<script>")
	require.NotContains(t, sent.Body, "<b>")
	require.Contains(t, sent.Body, "Great work")

	var stored models.Message
	require.NoError(t, db.First(&stored, sent.ID).Error)
	require.Equal(t, sent.Body, stored.Body)
}

func TestSendRejectsEmptyAndSelfMessages(t *testing.T) {
	db := setupServiceDB(t)
	svc := newMessageService(t, db)
	ctx := context.Background()

	_, err := svc.Send(ctx, "42", "tutor", dto.MessageSendRequest{
		RecipientID: "11",
		Body:        `<script>alert("x")</script>`,
	})
	require.ErrorIs(t, err, ErrMessageEmpty)

	_, err = svc.Send(ctx, "42", "tutor", dto.MessageSendRequest{
		RecipientID: "42",
		Body:        "note to self",
	})
	require.ErrorIs(t, err, ErrMessageSelf)

	_, err = svc.Send(ctx, "42", "tutor", dto.MessageSendRequest{RecipientID: "11"})
	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestHistoryReturnsChronologicalOrder(t *testing.T) {
	db := setupServiceDB(t)
	svc := newMessageService(t, db)
	ctx := context.Background()

	bodies := []string{"first", "second", "third"}
	base := time.Now().UTC().Add(-time.Hour)
	for i, body := range bodies {
		message := models.Message{
			ConversationID: "conv:11:42",
			SenderID:       "42",
			SenderRole:     "tutor",
			RecipientID:    "11",
			Body:           body,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&message).Error)
	}

	history, err := svc.History(ctx, dto.MessageHistoryQuery{ConversationID: "conv:11:42"})
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, body := range bodies {
		require.Equal(t, body, history[i].Body)
	}

	cutoff := base.Add(90 * time.Second)
	page, err := svc.History(ctx, dto.MessageHistoryQuery{ConversationID: "conv:11:42", Before: &cutoff, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "second", page[1].Body)
}

func TestMarkReadStampsRecipientMessages(t *testing.T) {
	db := setupServiceDB(t)
	svc := newMessageService(t, db)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "42", "tutor", dto.MessageSendRequest{RecipientID: "11", Body: "Bonjour"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, sent.ConversationID, "11"))

	var stored models.Message
	require.NoError(t, db.First(&stored, sent.ID).Error)
	require.NotNil(t, stored.ReadAt)

	// Messages the sender wrote stay untouched for the sender's own reads.
	require.NoError(t, svc.MarkRead(ctx, sent.ConversationID, "42"))
	var again models.Message
	require.NoError(t, db.First(&again, sent.ID).Error)
	require.Equal(t, stored.ReadAt.Unix(), again.ReadAt.Unix())
}
