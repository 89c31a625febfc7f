// Package api exposes the boundary surface: job enqueue/status, synchronous
// feed validation, and OPML import. The presentation layer lives elsewhere.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter configures the gin router with all routes.
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", h.EnqueueJob)
			jobs.GET("/:id", h.GetJob)
		}
		feeds := v1.Group("/feeds")
		{
			feeds.POST("/validate", h.ValidateFeed)
		}
		v1.POST("/import/opml", h.ImportOPML)
	}

	return r
}
