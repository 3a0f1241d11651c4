package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aanand-mishra/contact-manager/internal/storage"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
}

type HealthHandler struct {
	serviceName string
	version     string
	store       storage.Storage
}

func NewHealthHandler(serviceName, version string, store storage.Storage) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
	}
}

// HealthCheck answers 200 while storage responds and 503 once it doesn't.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status, code, db := "healthy", http.StatusOK, "disabled"
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.store.Ping(pingCtx); err != nil {
			status, code, db = "degraded", http.StatusServiceUnavailable, "down"
		} else {
			db = "up"
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        db,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
