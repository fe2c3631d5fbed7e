package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamAttempts 每次上游调用，按密钥序号和处置结果计数
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_upstream_attempts_total",
			Help: "Total number of upstream generateContent calls",
		},
		[]string{"credential", "result"},
	)

	// UpstreamLatency 单次上游调用耗时
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_upstream_latency_seconds",
			Help:    "Upstream call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"credential"},
	)

	// DispatchOutcomes 每次分发的最终结果
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_dispatch_outcomes_total",
			Help: "Total number of dispatches by final outcome kind",
		},
		[]string{"kind"},
	)

	// DispatchDuration 整个分发 (含退避) 耗时
	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_dispatch_duration_seconds",
			Help:    "End-to-end dispatch duration including backoff waits",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// BackoffWaits 退避等待次数
	BackoffWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_backoff_waits_total",
			Help: "Total number of backoff waits before retrying the same credential",
		},
	)
)

// outcomeLabel 成功记为 success，其余为失败类型
func outcomeLabel(o Outcome) string {
	if o.OK {
		return "success"
	}
	return string(o.Kind)
}
