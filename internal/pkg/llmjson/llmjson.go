// Package llmjson 从 LLM 自由文本输出中提取并解析 JSON 对象。
// 模型经常把 JSON 包在 markdown 代码块里，也可能完全不返回 JSON。
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"architect/internal/model"
)

const (
	jsonFence    = "```json"
	genericFence = "```"
)

// Extract 提取候选 JSON 字符串
// 优先取 ```json 代码块内容，其次取第一对 ``` 之间的内容，否则返回整段文本
func Extract(raw string) string {
	if idx := strings.Index(raw, jsonFence); idx >= 0 {
		start := idx + len(jsonFence)
		if end := strings.Index(raw[start:], genericFence); end >= 0 {
			return strings.TrimSpace(raw[start : start+end])
		}
		return strings.TrimSpace(raw[start:])
	}

	if idx := strings.Index(raw, genericFence); idx >= 0 {
		start := idx + len(genericFence)
		if end := strings.Index(raw[start:], genericFence); end >= 0 {
			return strings.TrimSpace(raw[start : start+end])
		}
		return strings.TrimSpace(raw[start:])
	}

	return strings.TrimSpace(raw)
}

// ParseDocument 把模型输出解析为项目文档
// 解析失败不报错：返回 overview 为原始文本的兜底文档，保证下游拿到的
// 永远是结构完整的对象
func ParseDocument(raw string) *model.ProjectDocument {
	candidate := Extract(raw)

	fields := map[string]any{}
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		preview := raw
		if len(preview) > 200 {
			preview = preview[:200]
		}
		log.Warn().Err(err).Str("response", preview).Msg("failed to parse model response as JSON")
		return model.FallbackProjectDocument(raw)
	}

	log.Info().Str("project_name", model.NewProjectDocument(fields).Name()).
		Msg("parsed project document")
	return model.NewProjectDocument(fields)
}
