package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_http_requests_total",
			Help: "Total number of HTTP requests processed by the group service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "group_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_operations_total",
			Help: "Engine operations by engine, operation and error kind.",
		},
		[]string{"engine", "operation", "result"},
	)
	storeCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_store_commits_total",
			Help: "Atomic batch commits by result.",
		},
		[]string{"result"},
	)
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_notifications_total",
			Help: "In-app notification records by event type and result.",
		},
		[]string{"type", "result"},
	)
	pushAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_push_attempts_total",
			Help: "Push dispatch attempts by result.",
		},
		[]string{"result"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		operationsTotal,
		storeCommitsTotal,
		notificationsTotal,
		pushAttemptsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveOperation records the outcome of an engine operation; kind is "" on success.
func ObserveOperation(engine, operation, kind string) {
	if kind == "" {
		kind = "ok"
	}
	operationsTotal.WithLabelValues(engine, operation, kind).Inc()
}

// ObserveCommit records a batch commit outcome: ok, conflict or error.
func ObserveCommit(result string) {
	storeCommitsTotal.WithLabelValues(result).Inc()
}

func ObserveNotification(eventType string, err error) {
	if err != nil {
		notificationsTotal.WithLabelValues(eventType, "error").Inc()
		return
	}
	notificationsTotal.WithLabelValues(eventType, "ok").Inc()
}

func IncPushAttempt(result string) {
	pushAttemptsTotal.WithLabelValues(result).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
