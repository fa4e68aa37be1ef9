package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	startTime = time.Now()

	// BuildVersion is set at build time with -ldflags.
	BuildVersion = "dev"
)

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cart-calculator",
	})
}

// Ready handles GET /ready
func (h *Handlers) Ready(c *gin.Context) {
	if h.cartService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"service": "cart-calculator",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "cart-calculator",
	})
}

// Live handles GET /live
func (h *Handlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// Version handles GET /version
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    BuildVersion,
		"service":    "cart-calculator",
		"go_version": runtime.Version(),
		"started_at": startTime.Format(time.RFC3339),
		"uptime_s":   time.Since(startTime).Seconds(),
	})
}
