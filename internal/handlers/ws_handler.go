package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"peerprep/interview/internal/feedback"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/session"
)

const writeWait = 10 * time.Second

// wsClient serialises writes to one connection.
type wsClient struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	logger *zap.Logger
}

func (c *wsClient) Emit(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(models.WSFrame{Type: event, Data: payload}); err != nil {
		c.logger.Debug("websocket write failed", zap.String("event", event), zap.Error(err))
	}
}

func (c *wsClient) fail(message string) {
	c.Emit(models.EventError, models.ErrorPayload{Error: message})
}

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type SessionHandler struct {
	ctrl     *session.Controller
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewSessionHandler(ctrl *session.Controller, allowedOrigins []string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		ctrl:   ctrl,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// SessionWS handles GET /ws/session. The first frame must be join_session.
func (h *SessionHandler) SessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn, logger: h.logger}
	claims := middleware.ClaimsFromContext(r.Context())
	// runs outlive the socket; a disconnect must not cancel a submission
	ctx := context.WithoutCancel(r.Context())

	var (
		sessionID string
		running   sync.WaitGroup
	)
	defer running.Wait()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		if sessionID == "" && frame.Type != models.EventJoinSession {
			client.fail("Join a session first")
			continue
		}

		switch frame.Type {
		case models.EventJoinSession:
			if sessionID != "" {
				client.fail("Already joined a session")
				continue
			}
			var req models.JoinSession
			if !decode(frame.Data, &req, client) {
				continue
			}
			if claims != nil && claims.SessionID != req.SessionID {
				client.fail("Token does not grant access to this session")
				continue
			}
			s, detach, err := h.ctrl.Join(ctx, models.JoinRequest(req), client)
			if err != nil {
				client.fail(errorText(err))
				continue
			}
			defer detach()
			sessionID = s.ID

		case models.EventCodeUpdate:
			var req models.CodeUpdate
			if !decode(frame.Data, &req, client) {
				continue
			}
			if err := h.ctrl.UpdateCode(ctx, sessionID, req.Code); err != nil {
				client.fail(errorText(err))
			}

		case models.EventRunCode:
			var req models.RunCode
			if len(frame.Data) > 0 && !decode(frame.Data, &req, client) {
				continue
			}
			running.Add(1)
			go func(id string) {
				defer running.Done()
				if _, err := h.ctrl.Run(ctx, id, req.Code, client); err != nil {
					client.Emit(models.EventExecutionError, models.ErrorPayload{Error: errorText(err)})
				}
			}(sessionID)

		case models.EventChatMessage:
			var req models.ChatIn
			if !decode(frame.Data, &req, client) {
				continue
			}
			running.Add(1)
			go func(id string) {
				defer running.Done()
				_ = h.ctrl.Chat(ctx, id, req.Message, client)
			}(sessionID)

		case models.EventProctoringEvent:
			var req models.ProctoringIn
			if !decode(frame.Data, &req, client) {
				continue
			}
			if err := h.ctrl.RecordProctoring(ctx, sessionID, req.Type, req.Metadata); err != nil {
				client.fail(errorText(err))
			}

		case models.EventHintFeedback:
			var req models.HintFeedbackIn
			if !decode(frame.Data, &req, client) {
				continue
			}
			if err := h.ctrl.HintFeedback(ctx, req.RequestID, req.Positive); err != nil {
				client.fail(errorText(err))
			}

		default:
			client.fail("Unknown event type: " + frame.Type)
		}
	}
}

func decode(data json.RawMessage, v any, client *wsClient) bool {
	if err := json.Unmarshal(data, v); err != nil {
		client.fail("Malformed event payload")
		return false
	}
	return true
}

func errorText(err error) string {
	var apiErr *models.ErrorResponse
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, session.ErrNotFound):
		return "Session not found"
	case errors.Is(err, session.ErrClosed):
		return "Session has ended"
	case errors.Is(err, session.ErrFeedbackDisabled):
		return "Feedback is not available"
	case errors.Is(err, feedback.ErrContextNotFound):
		return "That reply can no longer be rated"
	}
	return "Something went wrong"
}
