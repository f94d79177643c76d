package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cablenet/billing/internal/infrastructure/logger"
	"github.com/cablenet/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the banner and health endpoints
type SystemHandler struct {
	BaseHandler
	db      Pinger
	service string
	version string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, service, version string) *SystemHandler {
	return &SystemHandler{db: db, service: service, version: version}
}

// Root godoc
// @ID           root
// @Summary      Service banner
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[BannerData]
// @Router       / [get]
func (h *SystemHandler) Root(c *gin.Context) {
	h.Success(c, BannerData{
		Service: h.service,
		Version: h.version,
		Message: "Billing API is running",
	})
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Description  Reports whether the database answers
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthData]
// @Failure      503 {object} APIResponse[HealthData]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.L(ctx).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    HealthData{Status: "degraded", Database: "unreachable"},
			Error: &dto.ErrorInfo{
				Code:      dto.ErrCodeInternal,
				Message:   "Database unreachable",
				Timestamp: time.Now(),
			},
		})
		return
	}

	h.Success(c, HealthData{Status: "ok", Database: "ok"})
}
