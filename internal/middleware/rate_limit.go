package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ipWindow tracks request timestamps per client IP over a sliding minute.
type ipWindow struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// GlobalRateLimiter caps each client IP at requestsPerMinute across the
// whole API. State is in-memory, so limits are per-process.
func GlobalRateLimiter(requestsPerMinute int) gin.HandlerFunc {
	w := &ipWindow{hits: make(map[string][]time.Time)}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()
		cutoff := now.Add(-time.Minute)

		w.mu.Lock()
		recent := w.hits[ip][:0]
		for _, t := range w.hits[ip] {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}

		if len(recent) >= requestsPerMinute {
			w.hits[ip] = recent
			w.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":          false,
				"message":          "Rate limit exceeded",
				"limit":            requestsPerMinute,
				"retry_after_secs": 60,
			})
			c.Abort()
			return
		}

		w.hits[ip] = append(recent, now)
		w.mu.Unlock()

		c.Next()
	}
}
