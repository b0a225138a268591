package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_allowsUpToMaxPerKey(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)

	key := GetEmailKey("alice@example.com")
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(key), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow(key), "request over the cap must be denied")

	// A different address has its own window
	assert.True(t, rl.Allow(GetEmailKey("bob@example.com")))
}

func TestRateLimiter_keysDoNotCollide(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "alice@example.com"

	assert.True(t, rl.Allow(GetEmailKey("alice@example.com")))
	assert.True(t, rl.Allow(GetIPKey(r)), "email and IP buckets must be independent")
}

func TestRateLimitMiddleware_denies429(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	handler := RateLimitMiddleware(rl, GetIPKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
