package model

// ToolDefinition 工具定义，参数为 JSON Schema 形状的映射
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ExecuteToolRequest 执行单个工具
type ExecuteToolRequest struct {
	ToolName   string         `json:"tool_name" binding:"required"`
	Parameters map[string]any `json:"parameters"`
}

// ToolExecutionResponse 工具执行结果
type ToolExecutionResponse struct {
	Success bool           `json:"success"`
	Tool    string         `json:"tool"`
	Result  map[string]any `json:"result"`
	Message string         `json:"message"`
}
