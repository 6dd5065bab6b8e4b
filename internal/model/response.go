package model

// ConversationResponse 对话响应
type ConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
	Phase          string `json:"phase"`
	DownloadURL    string `json:"download_url"`
	Filename       string `json:"filename"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
