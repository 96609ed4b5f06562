package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection. Requests are
// labeled by route template so per-identity paths do not explode cardinality.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a builder round trip
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewBuildTimer starts timing a build and marks it in flight
func NewBuildTimer(metrics *Metrics) *Timer {
	metrics.BuildsInFlight.Inc()
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
	}
}

// Stop records the duration under outcome and clears the in-flight mark
func (t *Timer) Stop(outcome string) time.Duration {
	duration := time.Since(t.start)
	t.metrics.BuildsInFlight.Dec()
	t.metrics.RecordBuild(outcome, duration)
	return duration
}
