package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbucket/internal/service/classify"
)

type ClassifyHandler struct {
	pipeline *classify.Pipeline
	logger   *zap.Logger
}

func NewClassifyHandler(pipeline *classify.Pipeline, logger *zap.Logger) *ClassifyHandler {
	return &ClassifyHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Classify handles POST /classify. The optional bucket_ids list forces
// reclassification of those buckets' emails on top of the unclassified set.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		BucketIDs []string `json:"bucket_ids"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	result, err := h.pipeline.Run(c.Request.Context(), userID, req.BucketIDs)
	if err != nil {
		switch {
		case errors.Is(err, classify.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, classify.ErrNoBuckets),
			errors.Is(err, classify.ErrDuplicateBucketName):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Classification run failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "classification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
