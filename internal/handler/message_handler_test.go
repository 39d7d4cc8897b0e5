package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-api/internal/dto"
	"github.com/linguaflow/linguaflow-api/internal/handler"
	"github.com/linguaflow/linguaflow-api/internal/models"
	"github.com/linguaflow/linguaflow-api/internal/repository"
	"github.com/linguaflow/linguaflow-api/internal/service"
)

// setupMessageApp builds the messaging routes with an auth stub that trusts
// the X-User-ID and X-User-Role headers, so one app can act for both sides
// of a conversation.
func setupMessageApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Message{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	messageService := service.NewMessageService(repository.NewMessageRepository(db), nil, "", nil, validate, logger)
	messageHandler := handler.NewMessageHandler(messageService, validate, logger)

	app := fiber.New()
	messages := app.Group("/api/v1/messages", func(c *fiber.Ctx) error {
		c.Locals("user_id", strings.TrimSpace(c.Get("X-User-ID")))
		c.Locals("user_role", strings.TrimSpace(c.Get("X-User-Role")))
		return c.Next()
	})
	messageHandler.Register(messages)

	return app
}

func startMessageServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}

func TestMessageWebsocketReceivesRestSends(t *testing.T) {
	app := setupMessageApp(t)
	baseURL, shutdown := startMessageServer(t, app)
	defer shutdown()

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/messages/ws?peer_id=42"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, http.Header{"X-User-ID": {"11"}, "X-User-Role": {"student"}})
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	payload, err := json.Marshal(dto.MessageSendRequest{RecipientID: "11", Body: "Bonjour, prêt pour la leçon?"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/messages", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "tutor")

	httpResp, err := (&http.Client{Timeout: 3 * time.Second}).Do(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, httpResp.StatusCode)
	require.NoError(t, httpResp.Body.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var received dto.MessageResponse
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, "conv:11:42", received.ConversationID)
	require.Equal(t, "42", received.SenderID)
	require.Equal(t, "Bonjour, prêt pour la leçon?", received.Body)
}

func TestMessageWebsocketSendAndHistory(t *testing.T) {
	app := setupMessageApp(t)
	baseURL, shutdown := startMessageServer(t, app)
	defer shutdown()

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/messages/ws?peer_id=42"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, http.Header{"X-User-ID": {"11"}, "X-User-Role": {"student"}})
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(dto.MessageSendRequest{RecipientID: "42", Body: "J'ai fini les exercices."}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var echoed dto.MessageResponse
	require.NoError(t, conn.ReadJSON(&echoed))
	require.Equal(t, "11", echoed.SenderID)
	require.Equal(t, "J'ai fini les exercices.", echoed.Body)

	histReq := httptest.NewRequest("GET", "/api/v1/messages/history?conversation_id=conv:11:42", nil)
	histReq.Header.Set("X-User-ID", "42")
	histResp, err := app.Test(histReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, histResp.StatusCode)

	var histBody struct {
		Success bool                  `json:"success"`
		Data    []dto.MessageResponse `json:"data"`
	}
	decodeResponse(t, histResp, &histBody)
	require.True(t, histBody.Success)
	require.Len(t, histBody.Data, 1)
	require.Equal(t, "J'ai fini les exercices.", histBody.Data[0].Body)
}

func TestMessageWebsocketRequiresUpgrade(t *testing.T) {
	app := setupMessageApp(t)

	req := httptest.NewRequest("GET", "/api/v1/messages/ws?peer_id=42", nil)
	req.Header.Set("X-User-ID", "11")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
