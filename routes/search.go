package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docsearch-platform/internal/config"
	"docsearch-platform/services"
	"docsearch-platform/utils"
)

// SearchRequest is a hybrid search across one or more documents'
// collections. Alpha and score_threshold fall back to configured
// defaults when omitted.
type SearchRequest struct {
	Query          string   `json:"query" binding:"required"`
	DocumentIDs    []int64  `json:"document_ids" binding:"required"`
	Alpha          *float64 `json:"alpha"`
	ScoreThreshold *float64 `json:"score_threshold"`
}

func SetupSearchRoutes(router *gin.Engine, cfg *config.Config, searchService *services.SearchService) {
	router.POST("/api/search", func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		opts := services.SearchOptions{
			Alpha:          cfg.SearchAlpha,
			ScoreThreshold: cfg.SearchScoreThreshold,
		}
		if req.Alpha != nil {
			opts.Alpha = *req.Alpha
		}
		if req.ScoreThreshold != nil {
			opts.ScoreThreshold = *req.ScoreThreshold
		}
		if opts.Alpha < 0 || opts.Alpha > 1 {
			utils.RespondWithBadRequest(c, "alpha must be between 0 and 1", nil)
			return
		}

		chunks, err := searchService.Search(c.Request.Context(), req.Query, req.DocumentIDs, opts)
		if err != nil {
			utils.RespondWithInternalError(c, "Search failed", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"results": chunks,
			"count":   len(chunks),
		})
	})
}
