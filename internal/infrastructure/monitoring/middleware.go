package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures a session operation
type Timer struct {
	start   time.Time
	metrics *Metrics
	verb    string
}

// NewTimer starts timing verb. A nil metrics yields a no-op timer.
func NewTimer(metrics *Metrics, verb string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, verb: verb}
}

// Stop records the duration with the given outcome
func (t *Timer) Stop(outcome string) {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.RecordSessionOperation(t.verb, outcome, time.Since(t.start))
}
