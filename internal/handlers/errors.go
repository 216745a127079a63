package handlers

import (
	"errors"
	"log"
	"net/http"

	"quizbank/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto status codes. Every error body is {"error": msg}.
func respondError(c *gin.Context, err error, notFound string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Msg}
		if len(verr.Rows) > 0 {
			body["details"] = verr.Rows
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
