package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orgraph/orgraph/internal/aggregator"
	"github.com/orgraph/orgraph/internal/domain"
	apperrors "github.com/orgraph/orgraph/internal/errors"
	"github.com/orgraph/orgraph/internal/storage"
)

// Handler serves the stored snapshot documents read-only.
type Handler struct {
	store storage.Store
}

// NewHandler creates a new API handler
func NewHandler(store storage.Store) *Handler {
	return &Handler{
		store: store,
	}
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ListSnapshots returns the available snapshot documents
// GET /api/v1/snapshots
func (h *Handler) ListSnapshots(c *gin.Context) {
	infos, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": infos,
	})
}

// GetSnapshot returns one owner's snapshot document verbatim
// GET /api/v1/snapshots/:owner
func (h *Handler) GetSnapshot(c *gin.Context) {
	owner := c.Param("owner")

	data, err := h.store.Raw(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrCodeNotFound,
					"message": "no snapshot for " + owner,
				},
			})
			return
		}
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// GetSummary returns the owner-level rollup of one snapshot
// GET /api/v1/snapshots/:owner/summary
func (h *Handler) GetSummary(c *gin.Context) {
	owner := c.Param("owner")

	raw, err := h.store.Raw(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    apperrors.ErrCodeNotFound,
					"message": "no snapshot for " + owner,
				},
			})
			return
		}
		respondError(c, err)
		return
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		respondError(c, apperrors.NewMalformedError("snapshot for "+owner+" is unreadable", err))
		return
	}
	snap.Normalize()

	c.JSON(http.StatusOK, gin.H{
		"data": aggregator.Summarize(&snap),
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
