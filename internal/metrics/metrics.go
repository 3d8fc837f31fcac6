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
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realty_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "realty_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	moderationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realty_moderation_actions_total",
		Help: "Listing moderation actions by kind",
	}, []string{"action"})

	verificationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realty_verification_attempts_total",
		Help: "Email verification attempts by result",
	}, []string{"result"})

	notificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realty_notifications_dispatched_total",
		Help: "Outgoing notifications by kind and result",
	}, []string{"kind", "result"})

	httpPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realty_http_panics_total",
		Help: "Recovered handler panics by route",
	}, []string{"route"})
)

func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveModeration counts approve, reject and owner-edit resets.
func ObserveModeration(action string) {
	moderationActions.WithLabelValues(action).Inc()
}

func ObserveVerification(result string) {
	verificationAttempts.WithLabelValues(result).Inc()
}

func ObservePanic(route string) {
	httpPanics.WithLabelValues(route).Inc()
}

func ObserveNotification(kind, result string) {
	notificationsDispatched.WithLabelValues(kind, result).Inc()
}

// Middleware records request counts and latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
