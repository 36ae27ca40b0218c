package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// MaxInFlight lets at most n requests run handlers at once. Others wait for
// a slot; a request whose client gives up while waiting gets 503.
func MaxInFlight(n int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(n)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "server busy"})
			return
		}
		InFlight.Inc()
		defer func() {
			InFlight.Dec()
			sem.Release(1)
		}()
		c.Next()
	}
}
