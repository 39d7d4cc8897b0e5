package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/middleware"
	"github.com/linguaflow/linguaflow-api/internal/service"
	"github.com/linguaflow/linguaflow-api/internal/utils"
)

// MessageHandler wires direct messaging endpoints including the websocket upgrade.
type MessageHandler struct {
	service   service.MessageService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMessageHandler creates a message handler instance.
func NewMessageHandler(service service.MessageService, validator *validator.Validate, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register binds messaging routes under the provided router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Get("/history", h.history)
	router.Post("", h.send)
	router.Post("/read", h.markRead)
}

func (h *MessageHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	conversationID := strings.TrimSpace(conn.Query("conversation_id"))
	if conversationID == "" {
		if peer := strings.TrimSpace(conn.Query("peer_id")); peer != "" {
			conversationID = service.ConversationID(userID, peer)
		}
	}
	if conversationID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "conversation_id required"))
		_ = conn.Close()
		return
	}

	role := fmt.Sprint(conn.Locals("user_role"))
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.MessageConnectionOptions{
		UserID:         userID,
		Role:           role,
		ConversationID: conversationID,
		Context:        baseCtx,
	}

	h.logger.Info().Str("user_id", userID).Str("conversation_id", conversationID).Msg("message websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", userID).Str("conversation_id", conversationID).Msg("message websocket disconnected")
}

func (h *MessageHandler) send(c *fiber.Ctx) error {
	var payload dto.MessageSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Send(requestContext(c), userIDStringFromContext(c), userRoleFromContext(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageEmpty):
			return utils.SendError(c, fiber.StatusBadRequest, "message body empty")
		case errors.Is(err, service.ErrMessageSelf):
			return utils.SendError(c, fiber.StatusBadRequest, "cannot message yourself")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", response)
}

func (h *MessageHandler) history(c *fiber.Ctx) error {
	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation_id required")
	}

	var beforePtr *time.Time
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		beforePtr = &parsed
	}

	limit := 0
	if limitRaw := c.Query("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	query := dto.MessageHistoryQuery{
		ConversationID: conversationID,
		Before:         beforePtr,
		Limit:          limit,
	}

	messages, err := h.service.History(requestContext(c), query)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "message history", messages)
}

func (h *MessageHandler) markRead(c *fiber.Ctx) error {
	var payload struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(payload.ConversationID) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation_id required")
	}

	if err := h.service.MarkRead(requestContext(c), payload.ConversationID, userIDStringFromContext(c)); err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "conversation marked read", fiber.Map{"conversation_id": payload.ConversationID})
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func websocketUserID(conn *websocket.Conn) string {
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case float64:
			return fmt.Sprintf("%d", uint(v))
		case uint:
			return fmt.Sprintf("%d", v)
		case int:
			return fmt.Sprintf("%d", v)
		case string:
			return strings.TrimSpace(v)
		}
	}
	return ""
}
