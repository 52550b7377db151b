package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenith-casino/internal/services"
)

type failingLimiter struct{}

func (failingLimiter) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func newTestRouter(t *testing.T, limiter services.RateLimiter) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := services.NewMemoryStore()
	auth := services.NewAuthService(store, store, services.NewJWTService("secret", time.Hour), 100, 100, time.Hour)
	result, err := auth.Signup(context.Background(), "limited@example.com", "hunter22")
	require.NoError(t, err)

	if limiter == nil {
		limiter = store
	}
	router := gin.New()
	api := router.Group("/api", AuthMiddleware(auth), RateLimitMiddleware(limiter))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"account_id": c.GetString("account_id")}) }
	api.POST("/refill", ok)
	api.GET("/me", ok)
	return router, result.Token
}

func serve(router *gin.Engine, method, target, authHeader string) int {
	req := httptest.NewRequest(method, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	router, token := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/me", "Bearer "+token))
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/me?token="+token, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/me", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/me", "Token "+token))
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/me", "Bearer garbage"))
}

func TestRateLimitMiddleware(t *testing.T) {
	router, token := newTestRouter(t, nil)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/refill", "Bearer "+token))
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/api/refill", "Bearer "+token))
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/me", "Bearer "+token), "unlimited routes pass")
}

func TestRateLimitFailsOpen(t *testing.T) {
	router, token := newTestRouter(t, failingLimiter{})
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/refill", "Bearer "+token))
}

func TestRateRuleFor(t *testing.T) {
	rule, ok := rateRuleFor("/api/games/plinko/drop")
	require.True(t, ok)
	assert.Equal(t, "bet", rule.action)

	rule, ok = rateRuleFor("/api/games/mines/start")
	require.True(t, ok)
	assert.Equal(t, "bet", rule.action)

	rule, ok = rateRuleFor("/api/games/mines/reveal")
	require.True(t, ok)
	assert.Equal(t, services.DefaultRateLimitReveals, rule.limit)

	_, ok = rateRuleFor("/api/leaderboards/mines/FREE")
	assert.False(t, ok)
}
