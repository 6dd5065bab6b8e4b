package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"architect/internal/ai"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	orchestrator *ai.Orchestrator
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(orchestrator *ai.Orchestrator) *HealthHandler {
	return &HealthHandler{orchestrator: orchestrator}
}

// Health 健康检查，附带各提供商的密钥状态与性能统计
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"models":      h.orchestrator.Status(c.Request.Context()),
		"performance": h.orchestrator.PerformanceStats(),
		"message":     "Multi-model service is running",
	})
}

// Ready 就绪检查
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
