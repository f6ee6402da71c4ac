package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 报价服务指标
type Metrics struct {
	registry *prometheus.Registry

	quotes       *prometheus.CounterVec
	quoteLatency prometheus.Histogram
	missingRates *prometheus.CounterVec
	batches      *prometheus.CounterVec
	httpRequests *prometheus.HistogramVec
}

// New 创建并注册指标（独立 Registry，测试可并行创建）
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpq",
			Name:      "quotes_total",
			Help:      "Single quotes computed, by service, mode and outcome kind.",
		}, []string{"service", "mode", "result"}),
		quoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cpq",
			Name:      "quote_duration_seconds",
			Help:      "Time spent computing a single quote including rate table lookup.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		missingRates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpq",
			Name:      "missing_rates_total",
			Help:      "Rates absent from the table and counted as zero.",
		}, []string{"path"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpq",
			Name:      "quote_batches_total",
			Help:      "Quote batches by final status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cpq",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		m.quotes, m.quoteLatency, m.missingRates, m.batches, m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveQuote 记录一次报价
// result 为 ok 或 QuoteError.Kind
func (m *Metrics) ObserveQuote(service, mode, result string, d time.Duration) {
	m.quotes.WithLabelValues(service, mode, result).Inc()
	m.quoteLatency.Observe(d.Seconds())
}

// MissingRates 记录缺失费率
func (m *Metrics) MissingRates(paths []string) {
	for _, p := range paths {
		m.missingRates.WithLabelValues(p).Inc()
	}
}

// BatchFinished 记录批次终态
func (m *Metrics) BatchFinished(status string) {
	m.batches.WithLabelValues(status).Inc()
}

// ObserveHTTP 记录 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route, code string, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 底层 Registry（测试读取指标用）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
