// Package metrics Prometheus 指标注册与上报
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标集合
type Metrics struct {
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	ConversationsActive     prometheus.Gauge
	ConversationsSweptTotal prometheus.Counter
	DocumentsGeneratedTotal prometheus.Counter

	registry *prometheus.Registry
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "architect_provider_requests_total",
				Help: "Total number of LLM provider calls by provider and status.",
			},
			[]string{"provider", "status"},
		),
		ProviderRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "architect_provider_request_duration_seconds",
				Help:    "LLM provider call duration by provider.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		ConversationsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "architect_conversations_active",
				Help: "Number of conversations currently held in memory.",
			},
		),
		ConversationsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "architect_conversations_swept_total",
				Help: "Total number of conversations removed by the expiry sweep.",
			},
		),
		DocumentsGeneratedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "architect_documents_generated_total",
				Help: "Total number of project documents generated.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.ProviderRequestsTotal)
	reg.MustRegister(m.ProviderRequestDuration)
	reg.MustRegister(m.ConversationsActive)
	reg.MustRegister(m.ConversationsSweptTotal)
	reg.MustRegister(m.DocumentsGeneratedTotal)

	return m
}

// Handler 返回 /metrics 端点的 http.Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProviderCall 记录一次提供商调用
func (m *Metrics) RecordProviderCall(provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// SetActiveConversations 更新内存中的对话数
func (m *Metrics) SetActiveConversations(n int) {
	if m == nil {
		return
	}
	m.ConversationsActive.Set(float64(n))
}

// RecordSwept 记录过期清理删除的对话数
func (m *Metrics) RecordSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ConversationsSweptTotal.Add(float64(n))
}

// RecordDocumentGenerated 记录一次文档生成
func (m *Metrics) RecordDocumentGenerated() {
	if m == nil {
		return
	}
	m.DocumentsGeneratedTotal.Inc()
}
