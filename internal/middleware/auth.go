package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/services"
)

// AuthMiddleware accepts a bearer token, or a token query parameter for
// WebSocket upgrades, and requires its session to still exist.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		session, err := auth.ResolveSession(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("account_id", session.AccountID)
		c.Set("session_id", session.SessionID)
		c.Set("email", session.Email)

		c.Next()
	}
}

type rateRule struct {
	action string
	limit  int
	window time.Duration
}

func rateRuleFor(path string) (rateRule, bool) {
	switch {
	case strings.HasSuffix(path, "/mines/start"), strings.HasSuffix(path, "/plinko/drop"):
		return rateRule{"bet", services.DefaultRateLimitBets, time.Minute}, true
	case strings.HasSuffix(path, "/mines/reveal"):
		return rateRule{"reveal", services.DefaultRateLimitReveals, time.Minute}, true
	case strings.HasSuffix(path, "/mines/cashout"):
		return rateRule{"cashout", 60, time.Minute}, true
	case strings.HasSuffix(path, "/refill"):
		return rateRule{"refill", 10, time.Minute}, true
	}
	return rateRule{}, false
}

// RateLimitMiddleware caps bets, reveals and refills per account per minute.
// A limiter failure lets the request through.
func RateLimitMiddleware(limiter services.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString("account_id")
		if accountID == "" {
			c.Next()
			return
		}

		rule, ok := rateRuleFor(c.Request.URL.Path)
		if !ok {
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), accountID, rule.action, rule.limit, rule.window)
		if err != nil {
			log.WithError(err).Warn("Rate limit check failed")
			c.Next()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "Rate limit exceeded",
				"code":        "RATE_LIMITED",
				"retry_after": rule.window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
