package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abic-consultancy/abic_backend/internal/metrics"
)

// Metrics records request counts and latency labelled by the matched route
// template so ids in paths do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
