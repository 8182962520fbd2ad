package http

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Fried333/verus-connect/service"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verusconnect",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "verusconnect",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
	}, []string{"method", "route"})

	activeChallenges = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "verusconnect",
		Name:      "active_challenges",
		Help:      "Number of live, unexpired login challenges.",
	}, func() float64 {
		if activeChallengesFn == nil {
			return 0
		}
		return float64(activeChallengesFn())
	})

	activeChallengesFn func() int
)

// MetricsMiddleware records request counts and latencies, and binds the
// active-challenges gauge to the login service.
func MetricsMiddleware(loginService *service.LoginService) gin.HandlerFunc {
	activeChallengesFn = func() int {
		return loginService.Healthz(context.Background()).ActiveChallenges
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		timer := prometheus.NewTimer(requestDuration.WithLabelValues(c.Request.Method, route))
		c.Next()
		timer.ObserveDuration()

		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
