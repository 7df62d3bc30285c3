// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts handled requests by route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ToggleOperationsTotal counts favorite, cart and subscribe toggles.
	ToggleOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_toggle_operations_total",
			Help: "Total number of relation toggle operations",
		},
		[]string{"relation", "action", "outcome"},
	)

	// ShoppingListDownloadsTotal counts generated shopping lists.
	ShoppingListDownloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Total number of shopping list downloads",
		},
	)
)

// RecordToggle records one toggle outcome ("ok", "conflict", "missing", "error").
func RecordToggle(relation, action, outcome string) {
	ToggleOperationsTotal.WithLabelValues(relation, action, outcome).Inc()
}

func RecordShoppingListDownload() {
	ShoppingListDownloadsTotal.Inc()
}

// GinMiddleware records request count and latency per route pattern.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
