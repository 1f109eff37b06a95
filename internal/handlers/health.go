package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"controlia/internal/nats"
	"controlia/internal/redis"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	db    *gorm.DB
	cache *redis.Client
	nats  *nats.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, cache *redis.Client, natsClient *nats.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, nats: natsClient}
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "controlia"})
}

// Ready is the readiness probe: the database must answer; Redis and
// NATS are optional and only reported.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		checks["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	checks["database"] = "ok"

	if h.cache.HealthCheck(c.Request.Context()) == nil {
		checks["redis"] = "ok"
	} else {
		checks["redis"] = "down"
	}
	if h.nats.HealthCheck() == nil {
		checks["nats"] = "ok"
	} else {
		checks["nats"] = "down"
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
