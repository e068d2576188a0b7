package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limit types accepted by RateLimitMiddleware.
const (
	LimitMessage = "message"
	LimitFile    = "file"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int           // Max chat messages per client per minute
	FilesPerHour      int           // Max uploads per client per hour
	BurstSize         int           // Allow burst of N messages
	CleanupInterval   time.Duration // How often idle buckets are dropped
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of whole tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	return int(tb.tokens)
}

// idle reports whether the bucket is full again, meaning its client has
// been quiet long enough to forget.
func (tb *TokenBucket) idle() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	return tb.tokens >= tb.maxTokens
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now
}

// ClientRateLimiter manages rate limits per client key, usually the client IP.
type ClientRateLimiter struct {
	config        RateLimiterConfig
	messageLimits map[string]*TokenBucket
	fileLimits    map[string]*TokenBucket
	mu            sync.Mutex
	logger        *zap.Logger
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// NewClientRateLimiter creates a limiter and starts its cleanup routine.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}

	limiter := &ClientRateLimiter{
		config:        config,
		messageLimits: make(map[string]*TokenBucket),
		fileLimits:    make(map[string]*TokenBucket),
		logger:        logger,
		stopCleanup:   make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (crl *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(crl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			crl.cleanup()
		case <-crl.stopCleanup:
			return
		}
	}
}

// cleanup drops buckets that have refilled completely.
func (crl *ClientRateLimiter) cleanup() {
	crl.mu.Lock()
	defer crl.mu.Unlock()

	removed := 0
	for key, bucket := range crl.messageLimits {
		if bucket.idle() {
			delete(crl.messageLimits, key)
			removed++
		}
	}
	for key, bucket := range crl.fileLimits {
		if bucket.idle() {
			delete(crl.fileLimits, key)
			removed++
		}
	}
	if removed > 0 {
		crl.logger.Debug("Cleaned up rate limiter buckets", zap.Int("removed", removed))
	}
}

// Stop stops the cleanup routine. It is safe to call more than once.
func (crl *ClientRateLimiter) Stop() {
	crl.stopOnce.Do(func() { close(crl.stopCleanup) })
}

// AllowMessage checks if a chat message can be sent by client
func (crl *ClientRateLimiter) AllowMessage(client string) bool {
	crl.mu.Lock()
	bucket, exists := crl.messageLimits[client]
	if !exists {
		// BurstSize tokens, refill at MessagesPerMinute/60 per second
		refillRate := float64(crl.config.MessagesPerMinute) / 60.0
		bucket = NewTokenBucket(float64(crl.config.BurstSize), refillRate)
		crl.messageLimits[client] = bucket
	}
	crl.mu.Unlock()

	return bucket.Allow()
}

// AllowFile checks if an upload can proceed for client
func (crl *ClientRateLimiter) AllowFile(client string) bool {
	crl.mu.Lock()
	bucket, exists := crl.fileLimits[client]
	if !exists {
		// FilesPerHour tokens, refill at FilesPerHour/3600 per second
		refillRate := float64(crl.config.FilesPerHour) / 3600.0
		bucket = NewTokenBucket(float64(crl.config.FilesPerHour), refillRate)
		crl.fileLimits[client] = bucket
	}
	crl.mu.Unlock()

	return bucket.Allow()
}

// GetMessageLimit returns remaining message tokens for client
func (crl *ClientRateLimiter) GetMessageLimit(client string) (remaining int, limit int) {
	crl.mu.Lock()
	bucket, exists := crl.messageLimits[client]
	crl.mu.Unlock()

	if !exists {
		return crl.config.BurstSize, crl.config.BurstSize
	}
	return bucket.Remaining(), crl.config.BurstSize
}

// RateLimitMiddleware creates a Gin middleware enforcing limitType per client IP.
func RateLimitMiddleware(limiter *ClientRateLimiter, limitType string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()

		var allowed bool
		var remaining, limit int
		switch limitType {
		case LimitMessage:
			allowed = limiter.AllowMessage(client)
			remaining, limit = limiter.GetMessageLimit(client)
		case LimitFile:
			allowed = limiter.AllowFile(client)
			// Hourly buckets do not expose a meaningful remaining count
			remaining, limit = limiter.config.FilesPerHour, limiter.config.FilesPerHour
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "unknown limit type"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			if logger != nil {
				logger.Warn("Rate limit exceeded",
					zap.String("client", client),
					zap.String("limit_type", limitType),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail":      "Rate limit exceeded. Please try again later.",
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
