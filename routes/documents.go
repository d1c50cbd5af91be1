package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docsearch-platform/internal/repository"
	"docsearch-platform/models"
	"docsearch-platform/services"
	"docsearch-platform/utils"
)

// CreateDocumentRequest registers a document for ingestion. The file
// has already been extracted by the upstream stage; exactly one of
// text_path (raw text, chunked here) or chunks_path (pre-chunked JSON)
// must be set.
type CreateDocumentRequest struct {
	ID         int64  `json:"id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	TextPath   string `json:"text_path"`
	ChunksPath string `json:"chunks_path"`
}

func SetupDocumentRoutes(router *gin.Engine, documentService *services.DocumentService) {
	docs := router.Group("/api/documents")

	docs.POST("", func(c *gin.Context) {
		var req CreateDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if req.TextPath == "" && req.ChunksPath == "" {
			utils.RespondWithBadRequest(c, "Either text_path or chunks_path is required", nil)
			return
		}

		doc, err := documentService.Create(c.Request.Context(), req.ID, req.Name, req.TextPath, req.ChunksPath)
		if err != nil {
			if errors.Is(err, repository.ErrDocumentExists) {
				utils.RespondWithConflict(c, "Document already registered")
				return
			}
			utils.RespondWithInternalError(c, "Failed to register document", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"document": doc,
			"status":   models.StatusPending,
		})
	})

	docs.GET("/:id/status", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document id", nil)
			return
		}

		record, err := documentService.Status(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrDocumentNotFound) {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to read document status", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, record)
	})

	docs.DELETE("/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document id", nil)
			return
		}

		if err := documentService.Delete(c.Request.Context(), id); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete document", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	})
}
