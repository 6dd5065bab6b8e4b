package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"architect/internal/model"
	"architect/internal/service"
)

// MCPHandler 工具调用处理器
type MCPHandler struct {
	tools *service.ToolService
}

// NewMCPHandler 创建工具调用处理器
func NewMCPHandler(tools *service.ToolService) *MCPHandler {
	return &MCPHandler{tools: tools}
}

// Status 工具链路状态与能力清单
func (h *MCPHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mcp_server": "GooseAI",
		"status":     h.tools.ConnectionStatus(c.Request.Context()),
		"capabilities": []string{
			"Tool calling",
			"Action execution",
			"Project generation",
			"Code generation",
			"Documentation creation",
			"Git operations",
			"Dependency management",
			"Project deployment",
		},
	})
}

// Tools 可用工具列表
func (h *MCPHandler) Tools(c *gin.Context) {
	definitions := h.tools.Definitions()
	c.JSON(http.StatusOK, gin.H{
		"tools":       definitions,
		"total_tools": len(definitions),
	})
}

// Execute 执行单个工具
func (h *MCPHandler) Execute(c *gin.Context) {
	var req model.ExecuteToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.tools.Execute(c.Request.Context(), req.ToolName, req.Parameters)
	if err != nil {
		h.toolError(c, err)
		return
	}

	success, _ := result["success"].(bool)
	message, _ := result["message"].(string)
	if message == "" {
		message = "Tool executed"
	}
	c.JSON(http.StatusOK, model.ToolExecutionResponse{
		Success: success,
		Tool:    req.ToolName,
		Result:  result,
		Message: message,
	})
}

// CreateProject 用多个工具串联生成完整项目
func (h *MCPHandler) CreateProject(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.tools.CreateProject(c.Request.Context(), req)
	if err != nil {
		h.toolError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeployProject 依赖安装 + 部署编排
func (h *MCPHandler) DeployProject(c *gin.Context) {
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.tools.DeployProject(c.Request.Context(), req)
	if err != nil {
		h.toolError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Health 工具链路健康检查
func (h *MCPHandler) Health(c *gin.Context) {
	status := h.tools.ConnectionStatus(c.Request.Context())

	healthy := "unhealthy"
	if status["status"] == "available" {
		healthy = "healthy"
	}
	c.JSON(http.StatusOK, gin.H{
		"mcp_server":      "GooseAI",
		"status":          healthy,
		"tools_available": status["tools_available"],
		"connection":      status["status"],
	})
}

func (h *MCPHandler) toolError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrToolClientUnavailable):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Code:    50301,
			Message: "Tool client not available",
		})
	case errors.Is(err, service.ErrToolNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40404,
			Message: "Tool not found",
			Detail:  err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Tool execution failed",
			Detail:  err.Error(),
		})
	}
}
