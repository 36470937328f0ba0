package handlers

import (
	"shg-finance/internal/adapters/cache"
	"shg-finance/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg   *config.Config
	redis *redis.Client
}

// NewHealthHandler creates a new health handler. rdb may be nil.
func NewHealthHandler(cfg *config.Config, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{cfg: cfg, redis: rdb}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "SHG Finance API is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, database and cache health
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	dbStatus := "healthy"
	if err := config.HealthCheck(); err != nil {
		dbStatus = "unhealthy"
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	cacheStatus := "disabled"
	if h.redis != nil {
		cacheStatus = "healthy"
		if err := cache.Ping(c.UserContext(), h.redis); err != nil {
			cacheStatus = "unhealthy"
			status = "degraded"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
			"cache":    cacheStatus,
		},
	})
}

// APIInfo handles API info
// @Summary API Info
// @Description Returns API information
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "SHG Finance API",
		"version": "1.0.0",
	})
}
