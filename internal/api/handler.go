package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"FeedCurator/internal/feed"
	"FeedCurator/internal/jobs"
	"FeedCurator/internal/opml"
	"FeedCurator/internal/ports"
)

// maxOPMLBytes bounds uploaded subscription lists.
const maxOPMLBytes = 2 << 20

// Handler serves the boundary endpoints.
type Handler struct {
	queue     ports.JobQueue
	validator *feed.Validator
	importer  *opml.Importer
	logger    *slog.Logger
}

// NewHandler wires the handler dependencies.
func NewHandler(queue ports.JobQueue, validator *feed.Validator, importer *opml.Importer, logger *slog.Logger) *Handler {
	return &Handler{queue: queue, validator: validator, importer: importer, logger: logger}
}

type enqueueRequest struct {
	Type       string          `json:"type" binding:"required"`
	Payload    json.RawMessage `json:"payload"`
	Priority   int             `json:"priority"`
	MaxRetries int             `json:"maxRetries"`
	RunAt      *time.Time      `json:"runAt"`
}

// EnqueueJob handles POST /api/jobs.
func (h *Handler) EnqueueJob(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	opts := ports.EnqueueOptions{
		Priority:   req.Priority,
		MaxRetries: req.MaxRetries,
	}
	if req.RunAt != nil {
		opts.RunAt = *req.RunAt
	}

	id, err := h.queue.Enqueue(c.Request.Context(), req.Type, req.Payload, opts)
	if err != nil {
		h.logger.Error("enqueue failed", "type", req.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobId": id})
}

// GetJob handles GET /api/jobs/:id.
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.queue.GetStatus(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		h.logger.Error("get job failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":      job.ID,
		"type":       job.Type,
		"status":     job.Status,
		"retryCount": job.RetryCount,
		"maxRetries": job.MaxRetries,
		"nextRunAt":  job.NextRunAt,
		"lastError":  job.LastError,
		"createdAt":  job.CreatedAt,
	})
}

type validateRequest struct {
	URL string `json:"url" binding:"required"`
}

// ValidateFeed handles POST /api/feeds/validate; the result is returned
// synchronously so submission UIs can show immediate feedback. Validation
// failures are part of the result shape, never an HTTP error.
func (h *Handler) ValidateFeed(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := h.validator.Validate(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, result)
}

// ImportOPML handles POST /api/import/opml with a raw OPML body.
func (h *Handler) ImportOPML(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxOPMLBytes))
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty or unreadable body"})
		return
	}

	enqueued, err := h.importer.Import(c.Request.Context(), raw)
	if err != nil {
		h.logger.Error("opml import failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opml document", "enqueued": enqueued})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"enqueued": enqueued})
}
