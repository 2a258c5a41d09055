package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_AllowsBurst(t *testing.T) {
	l := NewTokenBucketLimiter(1, 3, 0)

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("client")
		assert.True(t, allowed, "request %d is within the burst", i+1)
	}

	allowed, info := l.Allow("client")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 3, info.Limit)
}

func TestTokenBucketLimiter_Refills(t *testing.T) {
	l := NewTokenBucketLimiter(1000, 1, 0)

	allowed, _ := l.Allow("client")
	require.True(t, allowed)
	allowed, _ = l.Allow("client")
	require.False(t, allowed)

	// At 1000 tokens/s a few milliseconds is enough to refill.
	time.Sleep(5 * time.Millisecond)

	allowed, _ = l.Allow("client")
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	l := NewTokenBucketLimiter(0.001, 1, 0)

	allowed, _ := l.Allow("a")
	require.True(t, allowed)
	allowed, _ = l.Allow("a")
	require.False(t, allowed)

	allowed, _ = l.Allow("b")
	assert.True(t, allowed, "a's exhausted bucket must not affect b")
	assert.Equal(t, 2, l.BucketCount())
}

func TestTokenBucketLimiter_CleanupDiscardsIdleBuckets(t *testing.T) {
	l := NewTokenBucketLimiter(10, 2, 0)

	l.Allow("idle")
	require.Equal(t, 1, l.BucketCount())

	l.mu.Lock()
	l.buckets["idle"].tokens = 2
	l.buckets["idle"].lastRefill = time.Now().Add(-time.Minute)
	l.mu.Unlock()

	l.cleanup()
	assert.Equal(t, 0, l.BucketCount())
}

func TestRateLimit_AdmitsAndSetsHeaders(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, 2, 0)
	handler := RateLimit(limiter, DefaultRateLimitConfig())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsWhenExhausted(t *testing.T) {
	limiter := NewTokenBucketLimiter(0.001, 1, 0)
	handler := RateLimit(limiter, DefaultRateLimitConfig())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "COMMON_009", resp.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestRateLimit_SkipPathsBypassThrottling(t *testing.T) {
	limiter := NewTokenBucketLimiter(0.001, 1, 0)
	handler := RateLimit(limiter, DefaultRateLimitConfig())(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, 0, limiter.BucketCount(), "skipped paths must not consume buckets")
}

func TestRateLimit_KeysOnForwardedClientIP(t *testing.T) {
	limiter := NewTokenBucketLimiter(0.001, 1, 0)
	handler := RateLimit(limiter, DefaultRateLimitConfig())(okHandler())

	fromClient := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/convert", nil)
		req.Header.Set("X-Forwarded-For", ip)
		return req
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, fromClient("198.51.100.7"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, fromClient("198.51.100.7"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, fromClient("203.0.113.9"))
	assert.Equal(t, http.StatusOK, rec.Code, "a different client has its own bucket")
}

func TestNewRateLimitMiddleware(t *testing.T) {
	m := NewRateLimitMiddleware(DefaultRateLimitConfig())
	defer m.Stop()

	rec := httptest.NewRecorder()
	m.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("X-RateLimit-Limit"))
}
