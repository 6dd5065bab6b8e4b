package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"architect/internal/model"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-sonnet-20241022"
	apiVersion     = "2023-06-01"

	// 占位密钥视同未配置
	placeholderKey = "your-claude-api-key-here"

	conversationMaxTokens = 512
	documentMaxTokens     = 8000
	testKeyMaxTokens        = 10
)

// ErrNotConfigured API key 未配置
var ErrNotConfigured = errors.New("anthropic API key not configured")

// Config Anthropic 客户端配置
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client Anthropic Messages API 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建 Anthropic 客户端
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
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
		log.Warn().Msg("ANTHROPIC API key not found or set to placeholder value")
	}
	return c
}

// Name 提供商标识
func (c *Client) Name() string {
	return "anthropic"
}

// Available 仅当凭证已配置时为 true
func (c *Client) Available() bool {
	return c.cfg.APIKey != "" && c.cfg.APIKey != placeholderKey
}

// Models 可用模型列表（Anthropic 侧为固定值）
func (c *Client) Models() []string {
	return []string{c.cfg.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateText 生成一段自由文本回复
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	text, err := c.createMessage(ctx, &messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   conversationMaxTokens,
		Temperature: 0.7,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	log.Info().Int("length", len(text)).Msg("generated conversation response with anthropic")
	return text, nil
}

// GenerateDocument 根据项目想法与完整对话历史生成项目文档原始文本
func (c *Client) GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error) {
	prompt := buildDocumentPrompt(idea, history)

	text, err := c.createMessage(ctx, &messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   documentMaxTokens,
		Temperature: 0.7,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	log.Info().Int("length", len(text)).Msg("generated project document with anthropic")
	return text, nil
}

// TestKey 用最小请求验证密钥可用
func (c *Client) TestKey(ctx context.Context) error {
	_, err := c.createMessage(ctx, &messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: testKeyMaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: "Hello"}},
	})
	return err
}

func (c *Client) createMessage(ctx context.Context, payload *messagesRequest) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal messages payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", errors.New("empty response from anthropic")
	}

	return parsed.Content[0].Text, nil
}

// buildDocumentPrompt 组装项目文档生成提示词，附带完整对话历史
func buildDocumentPrompt(idea string, history []model.Message) string {
	context := "[]"
	if data, err := json.MarshalIndent(history, "", "  "); err == nil {
		context = string(data)
	}

	return fmt.Sprintf(`You are creating documentation for a project. A user wants to build: %s

Based on the conversation history, create documentation that reflects what the user has shared.

**Requirements:**
1. Use all the information from the conversation
2. Create documentation that matches what the user described
3. Include any technology choices they mentioned
4. Cover the features and functionality they discussed
5. Make it practical and ready to use

**Documentation to Create:**
- Project overview (based on their description)
- Setup guide (using their technology choices)
- Implementation guide (based on their requirements)

**Conversation Context (Use This Information):**
%s

Generate a JSON response with this structure:
{
    "project_name": "Project Name based on conversation",
    "description": "Project description based on what user shared",
    "file_structure": {
        "docs": {
            "overview.md": {"content": "Project overview based on user's description"},
            "setup.md": {"content": "Setup instructions using technology choices mentioned"},
            "implementation.md": {"content": "Implementation guide based on user's requirements"}
        },
        "backend": [
            {"path": "backend/main.py", "content": "Backend starter using technology choices mentioned"},
            {"path": "backend/requirements.txt", "content": "Dependencies based on technology stack mentioned"}
        ],
        "frontend": [
            {"path": "frontend/package.json", "content": "Frontend dependencies based on choices mentioned"},
            {"path": "frontend/src/App.js", "content": "Frontend starter based on technology mentioned"}
        ],
        "config": [
            {"path": "README.md", "content": "Project overview and setup based on conversation"}
        ]
    },
    "dependencies": {
        "backend": ["dependencies based on technology mentioned"],
        "frontend": ["dependencies based on technology mentioned"]
    },
    "github_issues": [
        {
            "title": "Project setup and implementation",
            "description": "Implementation tasks based on user's requirements",
            "labels": ["documentation", "setup", "implementation"]
        }
    ]
}

Use ALL the information from the conversation to create relevant documentation. Make sure the documentation reflects what the user actually described about their project.`, idea, context)
}
