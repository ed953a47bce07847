package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/codearena/mcq-backend/internal/middleware"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/service"
	ws "github.com/codearena/mcq-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams exam session traffic over one WebSocket: answers,
// autosave deltas and integrity events, without per-request HTTP overhead.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream
// Upgrades to WebSocket for real-time answer capture during an exam.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	// Reject before upgrading when the session is not streamable.
	sess, _, err := h.sessionService.GetSession(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if sess.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "session is finished"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int64("user_id", claims.UserID).
		Int64("session_id", sessionID).
		Logger()
	wsLog.Info().Msg("Session stream connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(c, conn, sessionID, claims.UserID, &msg)
		case ws.ActionAutosave:
			h.handleAutosave(c, conn, sessionID, claims.UserID, &msg)
		case ws.ActionBehavior:
			h.handleBehavior(c, conn, sessionID, claims.UserID, &msg)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAnswer(c *gin.Context, conn *websocket.Conn, sessionID, userID int64, msg *ws.Request) {
	if msg.QuestionID <= 0 {
		ws.WriteError(conn, "question_id is required")
		return
	}

	sess, err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, userID, msg.QuestionID, msg.Answer)
	if h.writeOutcome(conn, err) {
		return
	}
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, Saved: len(sess.Answers)})
}

func (h *WSHandler) handleAutosave(c *gin.Context, conn *websocket.Conn, sessionID, userID int64, msg *ws.Request) {
	if len(msg.Answers) == 0 {
		ws.WriteError(conn, "answers are required")
		return
	}

	sess, err := h.sessionService.Autosave(c.Request.Context(), sessionID, userID, msg.Answers)
	if h.writeOutcome(conn, err) {
		return
	}
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, Saved: len(sess.Answers)})
}

func (h *WSHandler) handleBehavior(c *gin.Context, conn *websocket.Conn, sessionID, userID int64, msg *ws.Request) {
	sess, warning, err := h.sessionService.RecordBehavior(c.Request.Context(), sessionID, userID,
		model.BehaviorType(msg.Type), msg.Payload)
	if h.writeOutcome(conn, err) {
		return
	}
	ws.WriteTyped(conn, ws.WarningResponse{
		Event:        ws.EventWarning,
		Warning:      warning,
		TabSwitches:  sess.TabSwitches,
		CopyAttempts: sess.CopyAttempts,
	})
}

// writeOutcome reports engine errors to the client, reporting true when the
// caller should stop. Duplicate suppression is silent on the stream.
func (h *WSHandler) writeOutcome(conn *websocket.Conn, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrSessionTimeout):
		ws.WriteTyped(conn, ws.TimeoutResponse{Event: ws.EventTimeout, Status: model.SessionStatusTimeout})
		return true
	case errors.Is(err, service.ErrDuplicateRequest):
		return true
	default:
		ws.WriteError(conn, err.Error())
		return true
	}
}
