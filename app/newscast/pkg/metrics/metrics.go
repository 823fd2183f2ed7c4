// Package metrics provides Prometheus metrics for the newscast pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 管道指标集合，使用独立的 Registry 以便测试互不干扰
type Metrics struct {
	registry *prometheus.Registry

	// TopicsTotal 按来源与结果统计主题处理次数
	TopicsTotal *prometheus.CounterVec
	// RetriesTotal 按策略统计重试次数
	RetriesTotal *prometheus.CounterVec
	// LimiterWait 等待限流槽位的耗时
	LimiterWait *prometheus.HistogramVec
	// StageDuration 各阶段耗时
	StageDuration *prometheus.HistogramVec
	// RequestsTotal 按最终状态统计请求数
	RequestsTotal *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TopicsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "newscast",
				Name:      "topics_total",
				Help:      "Total number of processed topics",
			},
			[]string{"source", "outcome"},
		),
		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "newscast",
				Name:      "retries_total",
				Help:      "Total number of retry attempts",
			},
			[]string{"policy"},
		),
		LimiterWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "newscast",
				Name:      "limiter_wait_seconds",
				Help:      "Time spent waiting for a rate limiter slot",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"limiter"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "newscast",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "newscast",
				Name:      "requests_total",
				Help:      "Total number of pipeline runs by final state",
			},
			[]string{"state"},
		),
	}
}

// Handler 返回 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 暴露底层 Registry，供测试读取
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordTopic 记录单个主题的处理结果
func (m *Metrics) RecordTopic(source, outcome string) {
	if m == nil {
		return
	}
	m.TopicsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordRetry 记录一次重试
func (m *Metrics) RecordRetry(policy string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(policy).Inc()
}

// ObserveLimiterWait 记录限流等待耗时
func (m *Metrics) ObserveLimiterWait(limiter string, d time.Duration) {
	if m == nil {
		return
	}
	m.LimiterWait.WithLabelValues(limiter).Observe(d.Seconds())
}

// ObserveStage 记录阶段耗时
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRequest 记录请求最终状态
func (m *Metrics) RecordRequest(state string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(state).Inc()
}
