package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/observability"
	"github.com/linguaflow/linguaflow-api/internal/repository"
)

const (
	messageCacheTTL       = 30 * time.Minute
	messageSendBufferSize = 32
)

// ErrMessageEmpty indicates the body was blank after sanitization.
var ErrMessageEmpty = errors.New("message body empty after sanitization")

// ErrMessageSelf indicates a user tried to message themselves.
var ErrMessageSelf = errors.New("cannot message yourself")

// MessageConnectionOptions wraps metadata extracted during the websocket
// upgrade.
type MessageConnectionOptions struct {
	UserID         string
	Role           string
	ConversationID string
	Context        context.Context
}

// MessageService manages direct messaging between tutors and students over
// REST and websocket, with cross-node fan-out via Redis and NATS.
type MessageService interface {
	Send(ctx context.Context, senderID, senderRole string, payload dto.MessageSendRequest) (dto.MessageResponse, error)
	History(ctx context.Context, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error)
	MarkRead(ctx context.Context, conversationID, recipientID string) error
	ServeConnection(conn *websocket.Conn, opts MessageConnectionOptions)
	Start(ctx context.Context)
}

type messageService struct {
	repo        repository.MessageRepository
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	sanitizer   *bluemonday.Policy
	hub         *messageHub
	nodeID      string
	now         func() time.Time
}

type messageHub struct {
	mu            sync.RWMutex
	conversations map[string]map[*messageClient]struct{}
	log           zerolog.Logger
}

type messageClient struct {
	conn    *websocket.Conn
	send    chan dto.MessageResponse
	options MessageConnectionOptions
	service *messageService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

type messageEvent struct {
	Source  string              `json:"source"`
	Message dto.MessageResponse `json:"message"`
	SentAt  time.Time           `json:"sent_at"`
}

// NewMessageService creates a direct-messaging service instance.
func NewMessageService(repo repository.MessageRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) MessageService {
	sanitizer := bluemonday.StrictPolicy()

	hub := &messageHub{
		conversations: make(map[string]map[*messageClient]struct{}),
		log:           logger.With().Str("component", "message_hub").Logger(),
	}

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":messages"
		cachePrefix = channelBase + ":messages:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".messages"
	}

	return &messageService{
		repo:        repo,
		redis:       redisClient,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        natsConn,
		natsSubject: natsSubject,
		validator:   validate,
		logger:      logger.With().Str("component", "message_service").Logger(),
		sanitizer:   sanitizer,
		hub:         hub,
		nodeID:      uuid.NewString(),
		now:         time.Now,
	}
}

// ConversationID derives the canonical conversation identifier for a pair
// of participants, independent of who writes first.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "conv:" + pair[0] + ":" + pair[1]
}

func (s *messageService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *messageService) Send(ctx context.Context, senderID, senderRole string, payload dto.MessageSendRequest) (dto.MessageResponse, error) {
	payload.RecipientID = strings.TrimSpace(payload.RecipientID)
	payload.ConversationID = strings.TrimSpace(payload.ConversationID)

	if err := s.validator.Struct(payload); err != nil {
		return dto.MessageResponse{}, err
	}

	if payload.RecipientID == senderID {
		return dto.MessageResponse{}, ErrMessageSelf
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if clean == "" {
		return dto.MessageResponse{}, ErrMessageEmpty
	}

	conversationID := payload.ConversationID
	if conversationID == "" {
		conversationID = ConversationID(senderID, payload.RecipientID)
	}

	model := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		RecipientID:    payload.RecipientID,
		Body:           clean,
	}

	if err := s.repo.Save(ctx, &model); err != nil {
		return dto.MessageResponse{}, err
	}

	response := dto.NewMessageResponse(model)
	s.cacheLastMessage(ctx, response)
	s.hub.broadcast(conversationID, response)
	if err := s.publish(ctx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish message event")
	}

	observability.MessagesSent().Inc()

	return response, nil
}

func (s *messageService) History(ctx context.Context, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}

	messages, err := s.repo.ListByConversation(ctx, query.ConversationID, before, query.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewMessageResponseSlice(messages), nil
}

func (s *messageService) MarkRead(ctx context.Context, conversationID, recipientID string) error {
	return s.repo.MarkRead(ctx, conversationID, recipientID, s.now())
}

func (s *messageService) ServeConnection(conn *websocket.Conn, opts MessageConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &messageClient{
		conn:    conn,
		send:    make(chan dto.MessageResponse, messageSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	s.hub.register(client)
	observability.MessageConnections().Inc()

	if last := s.fetchLastMessage(baseCtx, opts.ConversationID); last != nil {
		select {
		case client.send <- *last:
		default:
			s.logger.Debug().Str("conversation_id", opts.ConversationID).Msg("dropping cached message for slow consumer")
		}
	}

	go client.writer()
	client.reader()
}

func (s *messageService) cacheLastMessage(ctx context.Context, message dto.MessageResponse) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal message for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, message.ConversationID)
	if err := s.redis.Set(ctx, key, payload, messageCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache message")
	}
}

func (s *messageService) fetchLastMessage(ctx context.Context, conversationID string) *dto.MessageResponse {
	if s.redis == nil || s.redisCache == "" || conversationID == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%s", s.redisCache, conversationID)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var message dto.MessageResponse
	if err := json.Unmarshal([]byte(result), &message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached message")
		return nil
	}

	return &message
}

func (s *messageService) publish(ctx context.Context, message dto.MessageResponse) error {
	event := messageEvent{
		Source:  s.nodeID,
		Message: message,
		SentAt:  s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *messageService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("message redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *messageService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "linguaflow-messages", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats message subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain message nats subscription")
		}
	}()
}

func (s *messageService) handleEvent(data []byte) {
	var event messageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid message event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.hub.broadcast(event.Message.ConversationID, event.Message)
}

func (h *messageHub) register(client *messageClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conversation := client.options.ConversationID
	if _, exists := h.conversations[conversation]; !exists {
		h.conversations[conversation] = make(map[*messageClient]struct{})
	}
	h.conversations[conversation][client] = struct{}{}
	h.log.Debug().Str("conversation_id", conversation).Str("user_id", client.options.UserID).Msg("message client connected")
}

func (h *messageHub) unregister(client *messageClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conversation := client.options.ConversationID
	if clients, ok := h.conversations[conversation]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.conversations, conversation)
		}
	}
	h.log.Debug().Str("conversation_id", conversation).Str("user_id", client.options.UserID).Msg("message client disconnected")
}

func (h *messageHub) broadcast(conversationID string, message dto.MessageResponse) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.conversations[conversationID] {
		select {
		case client.send <- message:
		default:
			h.log.Warn().Str("conversation_id", conversationID).Str("user_id", client.options.UserID).Msg("dropping message for slow client")
		}
	}
}

func (c *messageClient) reader() {
	defer c.close()

	for {
		var payload dto.MessageSendRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			c.service.logger.Debug().Err(err).Msg("message read loop ended")
			return
		}

		if payload.ConversationID == "" {
			payload.ConversationID = c.options.ConversationID
		}

		response, err := c.service.Send(c.baseCtx, c.options.UserID, c.options.Role, payload)
		if err != nil {
			c.service.logger.Warn().Err(err).Msg("failed to process websocket message")
			continue
		}

		select {
		case <-c.closed:
			return
		default:
		}

		select {
		case c.send <- response:
		default:
			c.service.logger.Warn().Msg("sender queue full, dropping ack message")
		}
	}
}

func (c *messageClient) writer() {
	defer c.close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.service.logger.Debug().Err(err).Msg("message write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("message ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *messageClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
