package routes

import (
	"time"

	"bookingagent/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the conversation endpoint.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/chat", hb.ChatHandler)
	}
}

// RegisterSessionRoutes registers session inspection endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	sessionGroup := r.Group("/api/session")
	{
		sessionGroup.GET("/:sessionID", hb.GetSessionHandler)
		sessionGroup.DELETE("/:sessionID", hb.DeleteSessionHandler)
	}
}

// RegisterPreferenceRoutes registers preference lookup endpoints.
func RegisterPreferenceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/preferences/:name", hb.GetPreferencesHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	health := hb.HealthHandler
	if health == nil {
		health = handlers.HealthHandler
	}
	r.GET("/health", health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	RegisterChatRoutes(r, hb)
	RegisterSessionRoutes(r, hb)
	RegisterPreferenceRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
