package handlers

import (
	"net/http"

	"bookingagent/services/booking"
	"bookingagent/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PreferenceHandler struct {
	Store booking.PreferenceStore
}

func NewPreferenceHandler(store booking.PreferenceStore) *PreferenceHandler {
	return &PreferenceHandler{Store: store}
}

// GetPreferencesHandler returns what was remembered from a user's last booking.
func (h *PreferenceHandler) GetPreferencesHandler(c *gin.Context) {
	key := booking.PreferenceKey(c.Param("name"))
	summary, ok, err := h.Store.Get(c.Request.Context(), key)
	if err != nil {
		getLogger(c).Error("preferences: lookup failed", zap.String("key", key), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load preferences", "")
		return
	}
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "No preferences stored", key)
		return
	}
	c.JSON(http.StatusOK, summary)
}
