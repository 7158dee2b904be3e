// Package metrics экспортирует метрики Prometheus.
//
// Метрики доступны на /metrics:
//   - notifications_created_total{type}
//   - notification_pushes_total{result}
//   - store_conflicts_total{operation}
//   - websocket_connections_active
//   - http_requests_total{method,route,status}
//   - http_request_duration_seconds{method,route}
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты попытки доставки push-события.
const (
	PushDelivered = "delivered"
	PushOffline   = "offline"
	PushDropped   = "dropped"
	PushRelayed   = "relayed"
	PushFailed    = "failed"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Persisted notifications by type",
		},
		[]string{"type"},
	)

	NotificationPushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_pushes_total",
			Help: "Real-time push attempts by result",
		},
		[]string{"result"},
	)

	StoreConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_conflicts_total",
			Help: "Optimistic concurrency conflicts by operation",
		},
		[]string{"operation"},
	)

	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Currently connected websocket clients",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route"},
	)
)

func RecordNotification(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}

func RecordPush(result string) {
	NotificationPushes.WithLabelValues(result).Inc()
}

func RecordConflict(operation string) {
	StoreConflicts.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest фиксирует завершённый HTTP-запрос.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
