package handlers

import (
	"context"
	"net/http"
	"time"

	"carpool/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			components[name] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":     state,
		"service":    utils.AppName,
		"version":    utils.AppVersion,
		"components": components,
		"timestamp":  time.Now(),
	})
}
