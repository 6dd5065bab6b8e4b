package ai

import (
	"context"
	"fmt"

	"architect/internal/model"
	"architect/internal/pkg/anthropic"
	"architect/internal/pkg/gooseai"
)

// Provider LLM 提供商的统一能力接口
// 编排层只按此接口轮询，不关心底层传输
type Provider interface {
	Name() string
	Available() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	TestKey(ctx context.Context) KeyStatus
}

// 密钥探测状态
const (
	KeyStatusValid   = "valid"
	KeyStatusInvalid = "invalid"
	KeyStatusMissing = "missing"
)

// KeyStatus 密钥探测结果
type KeyStatus struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Models  []string `json:"available_models,omitempty"`
}

// AnthropicProvider 把 Anthropic 客户端适配为 Provider
type AnthropicProvider struct {
	client *anthropic.Client
}

// NewAnthropicProvider 创建 Anthropic 提供商
func NewAnthropicProvider(client *anthropic.Client) *AnthropicProvider {
	return &AnthropicProvider{client: client}
}

func (p *AnthropicProvider) Name() string    { return p.client.Name() }
func (p *AnthropicProvider) Available() bool { return p.client.Available() }

func (p *AnthropicProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return p.client.GenerateText(ctx, prompt)
}

func (p *AnthropicProvider) GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error) {
	return p.client.GenerateDocument(ctx, idea, history)
}

func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	return p.client.Models(), nil
}

func (p *AnthropicProvider) TestKey(ctx context.Context) KeyStatus {
	if !p.client.Available() {
		return KeyStatus{Status: KeyStatusMissing, Message: "No API key configured"}
	}
	if err := p.client.TestKey(ctx); err != nil {
		return KeyStatus{Status: KeyStatusInvalid, Message: err.Error()}
	}
	return KeyStatus{Status: KeyStatusValid, Message: "Connected successfully.", Models: p.client.Models()}
}

// GooseAIProvider 把 GooseAI 客户端适配为 Provider
type GooseAIProvider struct {
	client *gooseai.Client
}

// NewGooseAIProvider 创建 GooseAI 提供商
func NewGooseAIProvider(client *gooseai.Client) *GooseAIProvider {
	return &GooseAIProvider{client: client}
}

func (p *GooseAIProvider) Name() string    { return p.client.Name() }
func (p *GooseAIProvider) Available() bool { return p.client.Available() }

func (p *GooseAIProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return p.client.GenerateText(ctx, prompt)
}

func (p *GooseAIProvider) GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error) {
	return p.client.GenerateDocument(ctx, idea, history)
}

func (p *GooseAIProvider) ListModels(ctx context.Context) ([]string, error) {
	return p.client.Engines(ctx)
}

func (p *GooseAIProvider) TestKey(ctx context.Context) KeyStatus {
	if !p.client.Available() {
		return KeyStatus{Status: KeyStatusMissing, Message: "No API key configured"}
	}
	engines, err := p.client.Engines(ctx)
	if err != nil {
		return KeyStatus{Status: KeyStatusInvalid, Message: "Connection failed: " + err.Error()}
	}
	return KeyStatus{
		Status:  KeyStatusValid,
		Message: fmt.Sprintf("Connected successfully. %d engines available.", len(engines)),
		Models:  engines,
	}
}
