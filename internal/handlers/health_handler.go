package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc checks that the database answers.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	Ping PingFunc
}

func NewHealthHandler(ping PingFunc) *HealthHandler {
	return &HealthHandler{Ping: ping}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "connected"
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.Ping == nil || h.Ping(ctx) != nil {
		status = "disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"mongodb":   status,
	})
}

func (h *HealthHandler) TestConnection(c *gin.Context) {
	if h.Ping == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database not connected"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "connected",
		"message":   "MongoDB connection is healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
