package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"architect/internal/ai"
)

// ProviderHandler 提供商状态与性能查询处理器
type ProviderHandler struct {
	orchestrator *ai.Orchestrator
}

// NewProviderHandler 创建提供商处理器
func NewProviderHandler(orchestrator *ai.Orchestrator) *ProviderHandler {
	return &ProviderHandler{orchestrator: orchestrator}
}

// Status 探测各提供商的密钥状态
func (h *ProviderHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Status(c.Request.Context()))
}

// Available 列出各提供商当前可用的模型
func (h *ProviderHandler) Available(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.AvailableModels(c.Request.Context()))
}

// Performance 各提供商的成功率与平均耗时
func (h *ProviderHandler) Performance(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.PerformanceStats())
}

// Recommendations 按历史成功率推荐各任务类型的提供商
func (h *ProviderHandler) Recommendations(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Recommendations())
}
