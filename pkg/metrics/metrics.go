package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Metrics 服务的 Prometheus 指标
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SubmissionsTotal       *prometheus.CounterVec
	ApplicationTransitions *prometheus.CounterVec
	ProgressCacheTotal     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New 创建并注册全部指标；reg 为 nil 时使用独立的 Registry
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path"}),
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Submissions written, by resulting status.",
		}, []string{"status"}),
		ApplicationTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_application_transitions_total",
			Help: "Application status transitions, by target status.",
		}, []string{"to"}),
		ProgressCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_progress_cache_total",
			Help: "Progress cache lookups, by result.",
		}, []string{"result"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SubmissionsTotal,
		m.ApplicationTransitions,
		m.ProgressCacheTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ── 领域事件 ──

// SubmissionWritten 记录一次提交写入
func (m *Metrics) SubmissionWritten(status string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(status).Inc()
}

// ApplicationTransitioned 记录一次申请状态变更
func (m *Metrics) ApplicationTransitioned(to string) {
	if m == nil {
		return
	}
	m.ApplicationTransitions.WithLabelValues(to).Inc()
}

// ProgressCache 记录一次进度缓存查询，hit 为 false 表示未命中
func (m *Metrics) ProgressCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ProgressCacheTotal.WithLabelValues(result).Inc()
}
