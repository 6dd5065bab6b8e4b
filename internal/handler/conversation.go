package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"architect/internal/model"
	"architect/internal/pkg/archive"
	"architect/internal/service"
)

// ConversationHandler 对话处理器
type ConversationHandler struct {
	service *service.ConversationService
}

// NewConversationHandler 创建对话处理器
func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: svc}
}

// Start 基于项目想法开启新对话
func (h *ConversationHandler) Start(c *gin.Context) {
	var req model.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result := h.service.Start(c.Request.Context(), req.ProjectIdea)
	c.JSON(http.StatusOK, conversationResponse(result))
}

// Continue 继续既有对话
func (h *ConversationHandler) Continue(c *gin.Context) {
	var req model.ContinueConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result := h.service.Continue(c.Request.Context(), req.ConversationID, req.Message)
	c.JSON(http.StatusOK, conversationResponse(result))
}

// Get 获取对话详情
func (h *ConversationHandler) Get(c *gin.Context) {
	id := c.Param("id")

	conv := h.service.Get(c.Request.Context(), id)
	if conv == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40401,
			Message: "Conversation not found",
		})
		return
	}

	c.JSON(http.StatusOK, conv)
}

// DownloadProject 下载打包好的完整项目 ZIP
func (h *ConversationHandler) DownloadProject(c *gin.Context) {
	id := c.Param("id")

	conv := h.service.Get(c.Request.Context(), id)
	if conv == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40401,
			Message: "Conversation not found",
		})
		return
	}
	if conv.Document == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40402,
			Message: "Documentation not generated yet. Please generate documentation first.",
		})
		return
	}

	data, filename, err := archive.BuildProjectZip(conv)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Code:    50001,
			Message: "Failed to build project archive",
			Detail:  err.Error(),
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

// DownloadResponse 下载最近一条助手回复的文本
func (h *ConversationHandler) DownloadResponse(c *gin.Context) {
	id := c.Param("id")

	conv := h.service.Get(c.Request.Context(), id)
	if conv == nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40401,
			Message: "Conversation not found",
		})
		return
	}

	content, ok := archive.BuildResponseText(conv)
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Code:    40403,
			Message: "No assistant responses found",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+archive.ResponseFilename(id)+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

// Cleanup 手动触发过期对话清理
func (h *ConversationHandler) Cleanup(c *gin.Context) {
	removed := h.service.Cleanup(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

func conversationResponse(result *service.Result) model.ConversationResponse {
	return model.ConversationResponse{
		ConversationID: result.ConversationID,
		Response:       result.Response,
		Phase:          result.Phase,
		DownloadURL:    "/api/v1/conversation/" + result.ConversationID + "/response/download",
		Filename:       archive.ResponseFilename(result.ConversationID),
	}
}
