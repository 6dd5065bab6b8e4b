package model

// StartConversationRequest 提交项目想法
type StartConversationRequest struct {
	ProjectIdea string `json:"project_idea" binding:"required"`
}

// ContinueConversationRequest 继续既有对话
type ContinueConversationRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
}
