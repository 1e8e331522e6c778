package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/cache"
)

const (
	LoginMaxFailures = 5
	RegisterMaxPerIP = 5
	OTPMaxRequests   = 5
	APIMaxRequests   = 100
	LoginWindow      = 15 * time.Minute
	RegisterWindow   = 30 * time.Minute
	OTPWindow        = 10 * time.Minute
	APIWindow        = time.Minute
)

type RateLimiter struct {
	cache  *cache.Cache
	logger *zap.Logger
}

func NewRateLimiter(c *cache.Cache, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{cache: c, logger: logger}
}

func (rl *RateLimiter) tooMany(c *gin.Context, key, message string) {
	retry := rl.cache.RateLimitTTL(c.Request.Context(), key)
	c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
	abort(c, http.StatusTooManyRequests, message, gin.H{"retry_after": int(retry.Seconds())})
}

// limit counts every request from the client IP against max per window.
// Redis failures let the request through.
func (rl *RateLimiter) limit(name string, max int64, window time.Duration, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate:%s:%s", name, c.ClientIP())
		n, err := rl.cache.IncrementRateLimit(c.Request.Context(), key, window)
		if err != nil {
			rl.logger.Warn("⚠️ rate limit unavailable", zap.String("limit", name), zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(max, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(maxInt64(max-n, 0), 10))
		if n > max {
			rl.tooMany(c, key, message)
			return
		}
		c.Next()
	}
}

// Login counts failed logins per IP; a successful login clears the counter.
func (rl *RateLimiter) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "rate:login_failures:" + c.ClientIP()
		n, err := rl.cache.Client().Get(ctx, key).Int64()
		if err == nil && n >= LoginMaxFailures {
			rl.tooMany(c, key, fmt.Sprintf("Too many failed logins. Try again in %d minutes", int(LoginWindow.Minutes())))
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := rl.cache.IncrementRateLimit(ctx, key, LoginWindow); err != nil {
				rl.logger.Warn("⚠️ login limiter unavailable", zap.Error(err))
			}
		case http.StatusOK:
			rl.cache.Client().Del(ctx, key)
		}
	}
}

func (rl *RateLimiter) Register() gin.HandlerFunc {
	return rl.limit("register", RegisterMaxPerIP, RegisterWindow, "Too many sign ups from this address. Try again later")
}

// OTP guards endpoints that send or check one-time codes.
func (rl *RateLimiter) OTP() gin.HandlerFunc {
	return rl.limit("otp", OTPMaxRequests, OTPWindow, "Too many code requests. Try again later")
}

func (rl *RateLimiter) API() gin.HandlerFunc {
	return rl.limit("api", APIMaxRequests, APIWindow, "Too many requests. Try again in a minute")
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
