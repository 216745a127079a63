package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"quizbank/internal/models"
	"quizbank/internal/pdfparser"
	"quizbank/internal/service"

	"github.com/gin-gonic/gin"
)

type PDFHandler struct {
	Questions *service.QuestionService
	MaxBytes  int64
}

func NewPDFHandler(questions *service.QuestionService, maxBytes int64) *PDFHandler {
	return &PDFHandler{Questions: questions, MaxBytes: maxBytes}
}

// ParsePDF reads the multipart "file" field and returns the parsed drafts. A PDF
// that cannot be read still answers 200 with the reason in errors.
func (h *PDFHandler) ParsePDF(c *gin.Context) {
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := pdfparser.ParseBytes(data)
	log.Printf("Parsed %s: %d questions, %d errors", fileHeader.Filename, result.TotalExtracted, len(result.Errors))

	if len(result.Questions) > 0 {
		candidates := make([]models.DuplicateCandidate, len(result.Questions))
		for i, q := range result.Questions {
			candidates[i] = models.DuplicateCandidate{Content: q.Content}
		}
		duplicates, err := h.Questions.CheckDuplicates(c.Request.Context(), candidates)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate check failed: %v", err))
		} else {
			result.DuplicatesFound = len(duplicates)
		}
	}
	c.JSON(http.StatusOK, result)
}
