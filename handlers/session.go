package handlers

import (
	"errors"
	"net/http"

	"bookingagent/services/session"
	"bookingagent/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	Sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

// GetSessionHandler returns the stored conversation state.
func (h *SessionHandler) GetSessionHandler(c *gin.Context) {
	id := c.Param("sessionID")
	sess, err := h.Sessions.Get(c.Request.Context(), id)
	var notFound *session.SessionNotFoundError
	if errors.As(err, &notFound) {
		utils.JSONError(c, http.StatusNotFound, "Session not found", id)
		return
	}
	if err != nil {
		getLogger(c).Error("session: load failed", zap.String("sessionId", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load session", "")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSessionHandler forgets a conversation.
func (h *SessionHandler) DeleteSessionHandler(c *gin.Context) {
	id := c.Param("sessionID")
	if err := h.Sessions.Delete(c.Request.Context(), id); err != nil {
		getLogger(c).Error("session: delete failed", zap.String("sessionId", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to clear session", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session cleared", "session_id": id})
}
