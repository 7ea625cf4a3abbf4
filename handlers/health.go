package handlers

import (
	"net/http"

	"bookingagent/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus the latest backend health snapshot.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"message":  "Hi, I'm your scheduling assistant",
		"backends": utils.GetHealthStatus(),
	})
}
