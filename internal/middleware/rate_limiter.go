package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter implements per-client rate limiting for the ingest
// endpoints. Share and pageview recording are cheap but unauthenticated
// clients can spam them; the ledger's idempotency makes duplicates safe
// but not free.
type RateLimiter struct {
	ipLimiters    map[string]*rate.Limiter
	siteLimiters  map[string]*rate.Limiter
	ipMutex       sync.RWMutex
	siteMutex     sync.RWMutex
	ipRate        rate.Limit
	siteRate      rate.Limit
	ipBurst       int
	siteBurst     int
	cleanupTicker *time.Ticker
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(ipRequestsPerSecond, siteRequestsPerSecond float64, ipBurst, siteBurst int) *RateLimiter {
	limiter := &RateLimiter{
		ipLimiters:    make(map[string]*rate.Limiter),
		siteLimiters:  make(map[string]*rate.Limiter),
		ipRate:        rate.Limit(ipRequestsPerSecond),
		siteRate:      rate.Limit(siteRequestsPerSecond),
		ipBurst:       ipBurst,
		siteBurst:     siteBurst,
		cleanupTicker: time.NewTicker(5 * time.Minute),
	}

	go limiter.cleanup()

	return limiter
}

// cleanup periodically drops idle limiters to bound memory
func (rl *RateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.ipMutex.Lock()
		rl.ipLimiters = make(map[string]*rate.Limiter)
		rl.ipMutex.Unlock()

		rl.siteMutex.Lock()
		rl.siteLimiters = make(map[string]*rate.Limiter)
		rl.siteMutex.Unlock()
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

func (rl *RateLimiter) getIPLimiter(ip string) *rate.Limiter {
	rl.ipMutex.RLock()
	limiter, exists := rl.ipLimiters[ip]
	rl.ipMutex.RUnlock()

	if !exists {
		rl.ipMutex.Lock()
		limiter = rate.NewLimiter(rl.ipRate, rl.ipBurst)
		rl.ipLimiters[ip] = limiter
		rl.ipMutex.Unlock()
	}

	return limiter
}

func (rl *RateLimiter) getSiteLimiter(siteID string) *rate.Limiter {
	rl.siteMutex.RLock()
	limiter, exists := rl.siteLimiters[siteID]
	rl.siteMutex.RUnlock()

	if !exists {
		rl.siteMutex.Lock()
		limiter = rate.NewLimiter(rl.siteRate, rl.siteBurst)
		rl.siteLimiters[siteID] = limiter
		rl.siteMutex.Unlock()
	}

	return limiter
}

// IPRateLimiterMiddleware limits requests based on IP address
func (rl *RateLimiter) IPRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getIPLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IngestRateLimiterMiddleware limits event recording by IP and by the
// target site, so one viral site cannot starve the rest of the ingest path.
func (rl *RateLimiter) IngestRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.getIPLimiter(ip).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		if siteID := c.Param("id"); siteID != "" {
			if !rl.getSiteLimiter(siteID).Allow() {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error": "rate limit exceeded for site",
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
