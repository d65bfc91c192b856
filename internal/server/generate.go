package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"promptforge/internal/auth"
	apperrors "promptforge/internal/errors"
	"promptforge/internal/events"
	"promptforge/internal/services"
)

type generateRequest struct {
	ProjectID string `json:"projectId"`
	Prompt    string `json:"prompt"`
	Model     string `json:"model"`
}

func (r generateRequest) toRequest(userID uuid.UUID) (services.GenerationRequest, error) {
	if strings.TrimSpace(r.ProjectID) == "" || strings.TrimSpace(r.Prompt) == "" {
		return services.GenerationRequest{}, apperrors.NewInvalidRequest("Project ID and prompt are required")
	}
	projectID, err := uuid.Parse(strings.TrimSpace(r.ProjectID))
	if err != nil {
		return services.GenerationRequest{}, apperrors.NewNotFound("Project")
	}
	return services.GenerationRequest{
		ProjectID: projectID,
		UserID:    userID,
		Prompt:    r.Prompt,
		Model:     r.Model,
	}, nil
}

// Generate runs one generation and streams its events as text/event-stream.
// Failures before the stream opens are plain JSON errors.
func (s *Server) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		s.respondError(c, apperrors.NewUnauthorized())
		return
	}

	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	req, err := body.toRequest(userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	prepared, err := s.svc.Orchestrator.Prepare(ctx, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	sink := events.NewSSEWriter(c.Writer)
	// The outcome is already on the stream and in the log.
	_, _ = s.svc.Orchestrator.Execute(ctx, prepared, sink)
}

// wsSink writes each event as one JSON text frame.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsSink) Emit(_ context.Context, evt events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(evt)
}

// GenerateWebSocket is the WebSocket transport for the same pipeline. The
// client sends one generate request; the connection closes after the terminal event.
func (s *Server) GenerateWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}
	claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	sink := &wsSink{conn: conn}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var body generateRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		_ = sink.Emit(c, events.Failed("Invalid message format"))
		return
	}
	req, err := body.toRequest(claims.UserID)
	if err != nil {
		_ = sink.Emit(c, events.Failed(apperrors.MessageOf(err)))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	prepared, err := s.svc.Orchestrator.Prepare(ctx, req)
	if err != nil {
		_ = sink.Emit(ctx, events.Failed(apperrors.MessageOf(err)))
		return
	}

	// A read error means the peer went away; stop the provider call.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	_, _ = s.svc.Orchestrator.Execute(ctx, prepared, sink)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
