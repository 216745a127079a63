package handlers

import (
	"encoding/json"
	"net/http"

	"quizbank/internal/models"
	"quizbank/internal/service"

	"github.com/gin-gonic/gin"
)

const questionNotFound = "Question not found"

type QuestionHandler struct {
	Service *service.QuestionService
}

func NewQuestionHandler(s *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{Service: s}
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.Service.ListQuestions(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.Service.GetQuestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var question models.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.CreateQuestion(c.Request.Context(), &question); err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) BulkCreate(c *gin.Context) {
	var questions []models.Question
	if err := c.ShouldBindJSON(&questions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.Service.BulkCreate(c.Request.Context(), questions)
	if err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *QuestionHandler) ImportJSON(c *gin.Context) {
	var rows []json.RawMessage
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format. Must be an array of questions."})
		return
	}
	report, err := h.Service.ImportJSON(c.Request.Context(), rows)
	if err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	var update models.QuestionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	question, err := h.Service.UpdateQuestion(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question updated successfully", "question": question})
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	if err := h.Service.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

func (h *QuestionHandler) CheckDuplicates(c *gin.Context) {
	var req struct {
		Questions []models.DuplicateCandidate `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	duplicates, err := h.Service.CheckDuplicates(c.Request.Context(), req.Questions)
	if err != nil {
		respondError(c, err, questionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": duplicates})
}
