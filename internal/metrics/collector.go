package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "imagestudio"

// Collector は生成操作と HTTP リクエストの指標を専用のレジストリに集計します。
type Collector struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	httpRequestsTotal *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

// NewCollector は Collector を初期化します。
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of image operations by kind and outcome",
			},
			[]string{"op", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Image operation duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"op"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "description_cache_lookups_total",
				Help:      "Description cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveOperation は操作1回分の結果と所要時間を記録します。
func (c *Collector) ObserveOperation(op, status string, d time.Duration) {
	c.operationsTotal.WithLabelValues(op, status).Inc()
	c.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP は HTTP リクエスト1件を記録します。
func (c *Collector) ObserveHTTP(method, route string, status int) {
	c.httpRequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
}

// CacheLookup はキャッシュ参照の結果を記録します。
func (c *Collector) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Registry は内部のレジストリを返します。
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler は /metrics 用のハンドラを返します。
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
