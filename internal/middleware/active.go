package middleware

import (
	"log"
	"net/http"

	"github.com/moodlog/server/internal/repo"
)

// LastActiveMiddleware stamps the authenticated user's last_active on every
// request. Must run after AuthMiddleware. Failures are logged, never fatal.
func LastActiveMiddleware(userRepo repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := GetUserID(r.Context()); ok {
				if err := userRepo.TouchLastActive(r.Context(), userID); err != nil {
					log.Printf("touch last_active: %v", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
