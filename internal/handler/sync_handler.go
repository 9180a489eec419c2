package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailbucket/internal/fetcher"
	"mailbucket/internal/service/syncer"
)

// FetcherFactory builds a ThreadFetcher from the provider access token
// the auth collaborator attached to the request.
type FetcherFactory func(ctx context.Context, accessToken string) (fetcher.ThreadFetcher, error)

// BucketBootstrapper seeds default buckets for first-time users.
type BucketBootstrapper interface {
	EnsureDefaults(ctx context.Context, userID string) error
}

type SyncHandler struct {
	syncService *syncer.Service
	newFetcher  FetcherFactory
	buckets     BucketBootstrapper
	logger      *zap.Logger
}

func NewSyncHandler(syncService *syncer.Service, newFetcher FetcherFactory, buckets BucketBootstrapper, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		newFetcher:  newFetcher,
		buckets:     buckets,
		logger:      logger,
	}
}

// Sync handles POST /sync.
func (h *SyncHandler) Sync(c *gin.Context) {
	userID := c.GetString("user_id")

	token := c.GetHeader("X-Provider-Token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing provider token"})
		return
	}

	f, err := h.newFetcher(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("Failed to build thread fetcher",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "mail provider unavailable"})
		return
	}

	result, err := h.syncService.Sync(c.Request.Context(), userID, f)
	if err != nil {
		h.logger.Error("Sync failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sync failed"})
		return
	}

	// First sync also seeds the default bucket set so the user can
	// classify right away.
	if err := h.buckets.EnsureDefaults(c.Request.Context(), userID); err != nil {
		h.logger.Warn("Failed to seed default buckets",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"new":   result.NewIDs,
		"known": len(result.KnownIDs),
	})
}
