package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/moodlog/server/internal/auth"
	"github.com/moodlog/server/internal/http/handlers"
	"github.com/moodlog/server/internal/middleware"
	"github.com/moodlog/server/internal/repo"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	moodHandler *handlers.MoodHandler,
	healthHandler *handlers.HealthHandler,
	tokens *auth.TokenService,
	userRepo repo.UserRepo,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", healthHandler.ServeHTTP)

	// OTP-bearing endpoints get an IP limiter: 10 per 10min
	otpLimiter := middleware.NewRateLimiter(10*time.Minute, 10)
	limitOTP := middleware.RateLimitMiddleware(otpLimiter, middleware.GetIPKey)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.With(limitOTP).Post("/login", authHandler.HandleLogin)
		r.With(limitOTP).Post("/forget-password", authHandler.HandleForgetPassword)
		r.Post("/verify-otp-reset", authHandler.HandleVerifyOTPForReset)
		r.Post("/reset-password", authHandler.HandleResetPassword)
		r.Post("/verify-email", authHandler.HandleVerifyEmail)
		r.Post("/refresh-token", authHandler.HandleRefreshToken)

		// Protected auth routes (require valid access token)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokens, userRepo))
			r.Patch("/change-password", authHandler.HandleChangePassword)
			r.Post("/logout", authHandler.HandleLogout)
		})
	})

	// Mood routes: all authenticated, all touch last_active
	r.Route("/api/mood", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens, userRepo))
		r.Use(middleware.LastActiveMiddleware(userRepo))

		r.Post("/", moodHandler.HandleSubmitMood)
		r.Get("/weekly", moodHandler.HandleWeeklyLogs)
		r.Get("/all", moodHandler.HandleAllMoods)
		r.Get("/average-weekly", moodHandler.HandleAverageWeeklyMood)
		r.Get("/glass-sleep", moodHandler.HandleTodayTrackers)
		r.Get("/details/{moodId}", moodHandler.HandleMoodDetails)
		r.Get("/specific-moods/{moodId}", moodHandler.HandleMoodDates)
		r.Get("/insights/7days", moodHandler.HandleSevenDayInsights)
		r.Get("/insights/monthly", moodHandler.HandleMonthlyInsights)
		r.Patch("/{id}", moodHandler.HandleSubmitSatisfaction)
		r.Patch("/{id}/tracker", moodHandler.HandleUpdateTracker)
	})

	return r
}
