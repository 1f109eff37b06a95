package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	ChatTurnsTotal     *prometheus.CounterVec
	ChatStreamDuration *prometheus.HistogramVec
	ChatTokensTotal    prometheus.Counter

	dbConnectionsOpen  prometheus.Gauge
	dbConnectionsIdle  prometheus.Gauge
	dbConnectionsInUse prometheus.Gauge
}

// New registers all collectors under the controlia namespace
func New() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controlia",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "controlia",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ChatTurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controlia",
			Name:      "chat_turns_total",
			Help:      "Completed and failed chat turns by vendor",
		}, []string{"provider", "status"}),
		ChatStreamDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "controlia",
			Name:      "chat_stream_duration_seconds",
			Help:      "Wall time of vendor streaming calls",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider"}),
		ChatTokensTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "controlia",
			Name:      "chat_tokens_total",
			Help:      "Estimated tokens accounted across all tenants",
		}),

		dbConnectionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "controlia",
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		}),
		dbConnectionsIdle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "controlia",
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		}),
		dbConnectionsInUse: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "controlia",
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use",
		}),
	}
}

// Middleware records request counts and latency per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// WatchDBPool updates the connection pool gauges every 10 seconds
// until stop is closed.
func (m *Metrics) WatchDBPool(db *gorm.DB, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sqlDB, err := db.DB()
			if err != nil {
				continue
			}
			stats := sqlDB.Stats()
			m.dbConnectionsOpen.Set(float64(stats.OpenConnections))
			m.dbConnectionsIdle.Set(float64(stats.Idle))
			m.dbConnectionsInUse.Set(float64(stats.InUse))
		}
	}
}
