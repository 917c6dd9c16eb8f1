package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 是进程内唯一的指标注册表，/metrics 暴露的就是它。
var Registry = prometheus.NewRegistry()

var (
	// ReportDuration 记录一次分析报表聚合的耗时。
	ReportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "inkpress",
		Subsystem: "analytics",
		Name:      "report_duration_seconds",
		Help:      "Time spent assembling one analytics report.",
		Buckets:   prometheus.DefBuckets,
	})

	// NewsletterRecipients 按结果统计群发邮件的收件人数（sent/failed）。
	NewsletterRecipients = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkpress",
		Subsystem: "newsletter",
		Name:      "recipients_total",
		Help:      "Newsletter recipients by dispatch outcome.",
	}, []string{"result"})

	// NewsletterBatches 按结果统计调用邮件通道的批次数。
	NewsletterBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkpress",
		Subsystem: "newsletter",
		Name:      "batches_total",
		Help:      "Transport calls issued by the newsletter dispatcher.",
	}, []string{"result"})

	// TrackingEvents 统计埋点写入结果：recorded/invalid/failed/throttled。
	TrackingEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkpress",
		Subsystem: "tracking",
		Name:      "events_total",
		Help:      "Fire-and-forget tracking events by kind and outcome.",
	}, []string{"kind", "outcome"})

	// HTTPRequests 统计 HTTP 请求数。
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkpress",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ReportDuration,
		NewsletterRecipients,
		NewsletterBatches,
		TrackingEvents,
		HTTPRequests,
	)
}

// Handler 返回 /metrics 的 HTTP handler。
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
