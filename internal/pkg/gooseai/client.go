package gooseai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"architect/internal/model"
)

const (
	defaultBaseURL = "https://api.goose.ai/v1"

	// 偏好引擎按顺序尝试；列表接口完全不可用时退回硬编码默认值
	defaultEngine = "gpt-j-6b"

	conversationMaxTokens = 512
	documentMaxTokens     = 4000
	toolMaxTokens         = 2000

	// 文档生成上下文只取最近 10 条消息
	documentContextMessages = 10
)

var enginePreference = []string{"gpt-j-6b", "gpt-neo-20b", "gpt-neo-125m"}

// ErrNotConfigured API key 未配置
var ErrNotConfigured = errors.New("gooseai API key not configured")

// Config GooseAI 客户端配置
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client GooseAI 客户端（OpenAI completion 风格 API + engines 列表接口）
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建 GooseAI 客户端
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	if !c.Available() {
		log.Warn().Msg("GooseAI client not available - missing API key")
	}
	return c
}

// Name 提供商标识
func (c *Client) Name() string {
	return "goose_ai"
}

// Available 仅当凭证已配置时为 true
func (c *Client) Available() bool {
	return c.cfg.APIKey != ""
}

type enginesResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Engines 查询远端可用引擎列表
func (c *Client) Engines(ctx context.Context) ([]string, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/engines", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gooseai engines request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gooseai engines returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed enginesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode engines response: %w", err)
	}

	engines := make([]string, 0, len(parsed.Data))
	for _, e := range parsed.Data {
		if e.ID != "" {
			engines = append(engines, e.ID)
		}
	}
	return engines, nil
}

// selectEngine 选择生成引擎：偏好列表中第一个可用的，否则第一个可用引擎，
// 否则硬编码默认值。每次调用都重新查询，远端可用性变化立即生效
func (c *Client) selectEngine(ctx context.Context) string {
	engines, err := c.Engines(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get available engines")
		return defaultEngine
	}

	available := make(map[string]bool, len(engines))
	for _, e := range engines {
		available[e] = true
	}
	for _, preferred := range enginePreference {
		if available[preferred] {
			return preferred
		}
	}
	if len(engines) > 0 {
		return engines[0]
	}
	return defaultEngine
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// GenerateText 生成一段自由文本回复
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	engine := c.selectEngine(ctx)

	text, err := c.complete(ctx, &completionRequest{
		Model:       engine,
		Prompt:      prompt,
		MaxTokens:   conversationMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("engine", engine).Int("length", len(text)).
		Msg("generated conversation response with gooseai")
	return text, nil
}

// GenerateDocument 根据项目想法与最近对话历史生成项目文档原始文本
func (c *Client) GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error) {
	engine := c.selectEngine(ctx)
	prompt := buildDocumentPrompt(idea, history)

	text, err := c.complete(ctx, &completionRequest{
		Model:       engine,
		Prompt:      prompt,
		MaxTokens:   documentMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("engine", engine).Int("length", len(text)).
		Msg("generated project document with gooseai")
	return text, nil
}

// ExecuteToolPrompt 工具执行路径的补全：固定默认引擎，低温，不查询引擎列表
func (c *Client) ExecuteToolPrompt(ctx context.Context, prompt string) (string, error) {
	text, err := c.complete(ctx, &completionRequest{
		Model:       defaultEngine,
		Prompt:      prompt,
		MaxTokens:   toolMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("engine", defaultEngine).Int("length", len(text)).
		Msg("executed tool prompt with gooseai")
	return text, nil
}

func (c *Client) complete(ctx context.Context, payload *completionRequest) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gooseai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gooseai returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty response from gooseai")
	}

	return strings.TrimSpace(parsed.Choices[0].Text), nil
}

// buildDocumentPrompt 组装文档生成提示词，上下文取最近 10 条消息并编号
func buildDocumentPrompt(idea string, history []model.Message) string {
	context := "No previous conversation."
	if len(history) > 0 {
		recent := history
		if len(recent) > documentContextMessages {
			recent = recent[len(recent)-documentContextMessages:]
		}
		parts := make([]string, 0, len(recent))
		for i, msg := range recent {
			role := "User"
			if msg.Role == model.RoleAssistant {
				role = "Assistant"
			}
			parts = append(parts, fmt.Sprintf("%d. %s: %s", i+1, role, msg.Content))
		}
		context = strings.Join(parts, "\n")
	}

	return fmt.Sprintf(`You are creating documentation for a project. A user wants to build: %s. Based on the conversation history, create documentation that reflects what the user has shared.

Requirements:
- Use ALL information from the conversation
- Match the user's description and requirements
- Include their technology choices and features
- Be practical and actionable

Documentation to Create:
- Project overview (based on their description)
- Setup guide (using their technology choices)
- Implementation guide (based on their requirements)

Conversation Context:
%s

Please provide the documentation in this JSON format:
{
    "project_name": "Project name based on user description",
    "overview": "Project overview based on user's description",
    "setup_guide": "Setup guide using their technology choices",
    "implementation_guide": "Implementation guide based on their requirements",
    "backend": "Backend file contents using their tech choices",
    "frontend": "Frontend file contents using their tech choices",
    "config": "Configuration file contents",
    "dependencies": "Dependencies based on conversation info",
    "github_issues": "GitHub issues based on conversation info"
}

Use ALL the information from the conversation to create relevant documentation. Make sure the documentation reflects what the user actually described about their project.`, idea, context)
}
