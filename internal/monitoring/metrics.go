package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 提交管线指标
	SubmissionsTotal   *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	CooldownRejections prometheus.Counter

	// 上游投递指标
	UpstreamDeliveryDuration prometheus.Histogram
	UpstreamFailures         *prometheus.CounterVec

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标（promauto 自动注册到默认注册表）
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailcapture_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailcapture_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailcapture_submissions_total",
				Help: "Total number of submission attempts by outcome",
			},
			[]string{"outcome"},
		),

		ValidationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailcapture_validation_failures_total",
				Help: "Total number of validation failures by rule",
			},
			[]string{"rule"},
		),

		CooldownRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailcapture_cooldown_rejections_total",
				Help: "Total number of submissions rejected by the cooldown window",
			},
		),

		UpstreamDeliveryDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mailcapture_upstream_delivery_duration_seconds",
				Help:    "Upstream delivery duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		UpstreamFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailcapture_upstream_failures_total",
				Help: "Total number of upstream delivery failures by kind",
			},
			[]string{"kind"},
		),

		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailcapture_rate_limit_blocks_total",
				Help: "Total number of rate limit blocks",
			},
			[]string{"type"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailcapture_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mailcapture_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSubmission 记录一次提交尝试的最终结果
func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure 记录校验失败
func (m *Metrics) RecordValidationFailure(rule string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(rule).Inc()
}

// RecordCooldownRejection 记录冷却窗口拒绝
func (m *Metrics) RecordCooldownRejection() {
	if m == nil {
		return
	}
	m.CooldownRejections.Inc()
}

// RecordUpstreamDelivery 记录上游投递耗时
func (m *Metrics) RecordUpstreamDelivery(duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDeliveryDuration.Observe(duration.Seconds())
}

// RecordUpstreamFailure 记录上游投递失败（kind: transport, status, rejected）
func (m *Metrics) RecordUpstreamFailure(kind string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(kind).Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	if m == nil {
		return
	}
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
