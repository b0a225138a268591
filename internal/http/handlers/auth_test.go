package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/moodlog/server/internal/middleware"
)

// The per-email limiter must short-circuit forget-password before the service
// runs. The handler has no service wired here, so reaching it would panic.
func TestHandleForgetPassword_perEmailLimit(t *testing.T) {
	h := NewAuthHandler(nil, time.Hour)

	key := middleware.GetEmailKey("alice@example.com")
	for h.emailLimiter.Allow(key) {
	}

	r := httptest.NewRequest(http.MethodPost, "/api/auth/forget-password",
		strings.NewReader(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()
	h.HandleForgetPassword(rec, r)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

// Case variants of an address share one budget.
func TestHandleForgetPassword_limitKeyIsCaseInsensitive(t *testing.T) {
	h := NewAuthHandler(nil, time.Hour)

	for h.emailLimiter.Allow(middleware.GetEmailKey("bob@example.com")) {
	}

	r := httptest.NewRequest(http.MethodPost, "/api/auth/forget-password",
		strings.NewReader(`{"email":"BOB@example.com"}`))
	rec := httptest.NewRecorder()
	h.HandleForgetPassword(rec, r)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
