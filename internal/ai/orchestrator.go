package ai

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"architect/internal/metrics"
	"architect/internal/model"
	"architect/internal/pkg/llmjson"
)

// PlaceholderResponse 所有提供商都失败时的固定回复
const PlaceholderResponse = "I'm having trouble responding right now. Please try again."

// 推荐接口覆盖的任务类型
var taskTypes = []string{"conversation", "documentation", "code", "analysis"}

// providerPerf 单个提供商的滚动性能计数
type providerPerf struct {
	success int
	failure int
	avgTime float64 // 秒，仅统计成功调用
}

// PerformanceStats 对外暴露的性能统计
type PerformanceStats struct {
	TotalRequests   int     `json:"total_requests"`
	SuccessRate     float64 `json:"success_rate"`
	AvgResponseTime float64 `json:"avg_response_time"`
	SuccessCount    int     `json:"success_count"`
	FailureCount    int     `json:"failure_count"`
}

// Orchestrator 提供商编排器
// 按固定优先级顺序调用提供商，失败自动降级到下一个；文本生成和文档生成
// 都不会向上抛错，总失败时返回固定占位内容
type Orchestrator struct {
	providers []Provider // 优先级顺序
	timeout   time.Duration
	metrics   *metrics.Metrics

	mu   sync.Mutex
	perf map[string]*providerPerf
}

// NewOrchestrator 创建编排器，providers 的顺序即降级顺序
func NewOrchestrator(providers []Provider, timeout time.Duration, m *metrics.Metrics) *Orchestrator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	perf := make(map[string]*providerPerf, len(providers))
	for _, p := range providers {
		perf[p.Name()] = &providerPerf{}
	}

	o := &Orchestrator{
		providers: providers,
		timeout:   timeout,
		metrics:   m,
		perf:      perf,
	}

	available := make(map[string]bool, len(providers))
	for _, p := range providers {
		available[p.Name()] = p.Available()
	}
	log.Info().Interface("providers", available).Msg("orchestrator initialized")

	return o
}

// GenerateText 生成自由文本回复，永不返回错误
func (o *Orchestrator) GenerateText(ctx context.Context, prompt string) string {
	for _, p := range o.providers {
		if !p.Available() {
			o.recordFailure(p.Name(), 0)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		start := time.Now()
		text, err := p.GenerateText(callCtx, prompt)
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
			o.recordFailure(p.Name(), elapsed)
			continue
		}

		o.recordSuccess(p.Name(), elapsed)
		return text
	}

	log.Error().Msg("all providers failed to generate a response")
	return PlaceholderResponse
}

// GenerateDocument 生成项目文档，永不返回错误
// 提供商调用成功后交给解析器，解析失败同样得到兜底文档；全部提供商失败时
// 返回固定占位文档
func (o *Orchestrator) GenerateDocument(ctx context.Context, idea string, history []model.Message) *model.ProjectDocument {
	for _, p := range o.providers {
		if !p.Available() {
			o.recordFailure(p.Name(), 0)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		start := time.Now()
		raw, err := p.GenerateDocument(callCtx, idea, history)
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).
				Msg("provider failed for document generation, trying next")
			o.recordFailure(p.Name(), elapsed)
			continue
		}

		o.recordSuccess(p.Name(), elapsed)
		o.metrics.RecordDocumentGenerated()

		doc := llmjson.ParseDocument(raw)
		log.Info().Str("provider", p.Name()).Str("project_name", doc.Name()).
			Msg("generated project document")
		return doc
	}

	log.Error().Msg("all providers failed to generate a project document")
	return model.FailedProjectDocument()
}

// recordSuccess 成功计数并用增量均值更新平均耗时
func (o *Orchestrator) recordSuccess(name string, elapsed time.Duration) {
	o.metrics.RecordProviderCall(name, "success", elapsed)

	o.mu.Lock()
	defer o.mu.Unlock()
	perf, ok := o.perf[name]
	if !ok {
		return
	}
	perf.success++
	n := float64(perf.success)
	perf.avgTime = (perf.avgTime*(n-1) + elapsed.Seconds()) / n
}

// recordFailure 仅累加失败计数
func (o *Orchestrator) recordFailure(name string, elapsed time.Duration) {
	o.metrics.RecordProviderCall(name, "failure", elapsed)

	o.mu.Lock()
	defer o.mu.Unlock()
	if perf, ok := o.perf[name]; ok {
		perf.failure++
	}
}

// PerformanceStats 返回各提供商的性能统计快照
func (o *Orchestrator) PerformanceStats() map[string]PerformanceStats {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := make(map[string]PerformanceStats, len(o.perf))
	for name, perf := range o.perf {
		total := perf.success + perf.failure
		rate := 0.0
		if total > 0 {
			rate = float64(perf.success) / float64(total) * 100
		}
		stats[name] = PerformanceStats{
			TotalRequests:   total,
			SuccessRate:     math.Round(rate*100) / 100,
			AvgResponseTime: math.Round(perf.avgTime*1000) / 1000,
			SuccessCount:    perf.success,
			FailureCount:    perf.failure,
		}
	}
	return stats
}

// Status 探测所有提供商的密钥状态
func (o *Orchestrator) Status(ctx context.Context) map[string]KeyStatus {
	status := make(map[string]KeyStatus, len(o.providers))
	for _, p := range o.providers {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		status[p.Name()] = p.TestKey(callCtx)
		cancel()
	}
	return status
}

// AvailableModels 返回各提供商的可用模型列表
func (o *Orchestrator) AvailableModels(ctx context.Context) map[string][]string {
	models := make(map[string][]string, len(o.providers))
	for _, p := range o.providers {
		if !p.Available() {
			models[p.Name()] = []string{}
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		list, err := p.ListModels(callCtx)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("provider", p.Name()).Msg("failed to list models")
			models[p.Name()] = []string{}
			continue
		}
		models[p.Name()] = list
	}
	return models
}

// Recommendations 按成功率给每类任务推荐提供商，成功率相同取优先级靠前者
func (o *Orchestrator) Recommendations() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()

	best := ""
	bestRate := -1.0
	for _, p := range o.providers {
		perf := o.perf[p.Name()]
		total := perf.success + perf.failure
		if total < 1 {
			total = 1
		}
		rate := float64(perf.success) / float64(total)
		if rate > bestRate {
			best = p.Name()
			bestRate = rate
		}
	}

	recommendations := make(map[string]string, len(taskTypes))
	for _, task := range taskTypes {
		recommendations[task] = best
	}
	return recommendations
}
