package handlers

import (
	"context"
	"net/http"

	"bookingagent/models"
	"bookingagent/services/dialogue"
	"bookingagent/services/session"
	"bookingagent/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TurnProcessor runs one conversational turn. *dialogue.Orchestrator
// satisfies it.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, s models.Session, utterance string) (dialogue.TurnResult, models.Session)
}

// ChatHandler exposes the booking conversation over HTTP.
type ChatHandler struct {
	Sessions     *session.Manager
	Orchestrator TurnProcessor
}

func NewChatHandler(sessions *session.Manager, orch TurnProcessor) *ChatHandler {
	return &ChatHandler{Sessions: sessions, Orchestrator: orch}
}

// HandleChat processes one user message. A missing session id starts a new
// conversation.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	logger := getLogger(c)

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var result dialogue.TurnResult
	sess, err := h.Sessions.WithSession(c.Request.Context(), sessionID, func(ctx context.Context, s models.Session) (models.Session, error) {
		var next models.Session
		result, next = h.Orchestrator.ProcessTurn(ctx, s, req.Message)
		return next, nil
	})
	if err != nil {
		logger.Error("chat: session update failed", zap.String("sessionId", sessionID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to process message", "")
		return
	}

	logger.Info("chat: turn processed",
		zap.String("sessionId", sessionID),
		zap.String("outcome", string(result.Outcome)),
		zap.String("phase", string(result.Phase())))

	c.JSON(http.StatusOK, models.ChatResponse{
		Response:         result.Reply,
		SessionID:        sessionID,
		Outcome:          string(result.Outcome),
		Phase:            string(result.Phase()),
		Slots:            result.Offered,
		SelectedSlot:     sess.SelectedSlot,
		BookingConfirmed: sess.BookingConfirmed,
		Booking:          result.Receipt,
		Retryable:        result.Retryable,
		Degraded:         result.Degraded,
	})
}
