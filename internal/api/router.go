/*
Package api exposes the record store as a JSON HTTP API for a browser UI.

Errors use the envelope {"error": {"message": ..., "code": ...}}. Storage
failures answer 503, invalid input 400.
*/
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/khanglvm/recordbook/internal/logger"
)

func NewRouter(h *Handler, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(log.With("component", "http")))
	router.Use(CORS())

	router.GET("/healthcheck", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/students", h.ListStudents)
		api.POST("/students", h.AddStudent)
		api.POST("/students/bulk", h.AddStudentsBulk)
		api.POST("/students/upload", h.UploadRoster)

		api.GET("/records", h.ListRecords)
		api.PUT("/records", h.SaveRecord)

		api.GET("/generated", h.ListGenerated)
		api.POST("/generate", h.Generate)

		api.GET("/stats", h.Stats)
		api.GET("/taxonomy", h.Taxonomy)
		api.GET("/search", h.Search)
	}

	return router
}
