package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Questions *QuestionHandler
	Results   *ResultHandler
	PDF       *PDFHandler
	Health    *HealthHandler
}

// RegisterRoutes mounts the API under /api. Writes to the question bank go
// through admin; pass nil to leave them open.
func RegisterRoutes(r *gin.Engine, h Handlers, admin gin.HandlerFunc) {
	if admin == nil {
		admin = func(c *gin.Context) { c.Next() }
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Health)
		api.GET("/test-connection", h.Health.TestConnection)
		api.GET("/statistics", h.Results.Statistics)
	}

	questions := api.Group("/questions")
	{
		questions.GET("", h.Questions.ListQuestions)
		questions.GET("/:id", h.Questions.GetQuestion)
		questions.POST("/check-duplicates", h.Questions.CheckDuplicates)
		questions.POST("/parse-pdf", h.PDF.ParsePDF)

		questions.POST("", admin, h.Questions.CreateQuestion)
		questions.POST("/bulk", admin, h.Questions.BulkCreate)
		questions.POST("/import-json", admin, h.Questions.ImportJSON)
		questions.PUT("/:id", admin, h.Questions.UpdateQuestion)
		questions.DELETE("/:id", admin, h.Questions.DeleteQuestion)
	}

	results := api.Group("/practice-results")
	{
		results.GET("", h.Results.ListResults)
		results.POST("", h.Results.CreateResult)
		results.DELETE("/:id", h.Results.DeleteResult)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})
}
