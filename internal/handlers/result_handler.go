package handlers

import (
	"net/http"

	"quizbank/internal/models"
	"quizbank/internal/service"

	"github.com/gin-gonic/gin"
)

const resultNotFound = "Practice result not found"

type ResultHandler struct {
	Service *service.ResultService
}

func NewResultHandler(s *service.ResultService) *ResultHandler {
	return &ResultHandler{Service: s}
}

func (h *ResultHandler) ListResults(c *gin.Context) {
	results, err := h.Service.ListResults(c.Request.Context())
	if err != nil {
		respondError(c, err, resultNotFound)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *ResultHandler) CreateResult(c *gin.Context) {
	var result models.QuizResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.CreateResult(c.Request.Context(), &result); err != nil {
		respondError(c, err, resultNotFound)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ResultHandler) DeleteResult(c *gin.Context) {
	if err := h.Service.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, resultNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Practice result deleted successfully"})
}

func (h *ResultHandler) Statistics(c *gin.Context) {
	stats, err := h.Service.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err, resultNotFound)
		return
	}
	c.JSON(http.StatusOK, stats)
}
