package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the endpoint handlers for route registration.
type HandlerBundle struct {
	// Conversation endpoints
	ChatHandler gin.HandlerFunc

	// Session endpoints
	GetSessionHandler    gin.HandlerFunc
	DeleteSessionHandler gin.HandlerFunc

	// Preference endpoints
	GetPreferencesHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
