// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集应用和媒体管线指标.
//
// Example:
//
//	import "github.com/yeisme/mediavault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.ProcessedCounter.WithLabelValues("product_image", "processed").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/mediavault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ProcessedCounter 媒体处理计数器，按类目与结果分桶.
	ProcessedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_processed_total",
			Help: "Total number of processed media objects",
		},
		[]string{"category", "result"},
	)

	// ProcessDuration 单个对象处理耗时.
	ProcessDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_process_duration_seconds",
			Help:    "Media processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// CleanupQueueDepth 清理队列当前深度.
	CleanupQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_cleanup_queue_depth",
			Help: "Number of cleanup tasks waiting in the in-process queue",
		},
	)

	// CleanupCounter 清理删除计数器，按结果分桶.
	CleanupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_cleanup_total",
			Help: "Total number of storage cleanup deletions",
		},
		[]string{"result"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(
		RequestCounter, RequestDuration,
		ProcessedCounter, ProcessDuration,
		CleanupQueueDepth, CleanupCounter,
	)

	return nil
}

// Registry 返回应用注册表，供 GORM / watermill 插件复用.
func Registry() *prometheus.Registry {
	return registry
}

// StartMetricsServer 在配置的端点上暴露 /metrics（复用 gin 引擎或独立端口）.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	if engine != nil {
		engine.GET("/metrics", gin.WrapH(handler))
		return nil
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		_ = http.ListenAndServe(config.Endpoint, mux)
	}()

	return nil
}
