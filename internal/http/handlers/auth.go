package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/moodlog/server/internal/auth"
	"github.com/moodlog/server/internal/middleware"
	"github.com/moodlog/server/internal/model"
)

const refreshCookieName = "refreshToken"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *auth.AuthService
	validate     *validator.Validate
	refreshTTL   time.Duration
	emailLimiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		validate:     validator.New(),
		refreshTTL:   refreshTTL,
		emailLimiter: middleware.NewRateLimiter(10*time.Minute, 5),
	}
}

// registerRequest is the request body for POST /api/auth/register
type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// registeredUser is the user object returned from register, with the session
// tokens attached the way clients expect them.
type registeredUser struct {
	model.User
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondServiceError(w, auth.ErrMissingFields)
		return
	}
	if req.Password != req.ConfirmPassword {
		respondServiceError(w, auth.ErrPasswordMismatch)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tokens, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, "User registered successfully", registeredUser{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// loginRequest is the request body for POST /api/auth/login
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginData is the success payload for login
type loginData struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	Role         string     `json:"role"`
	ID           string     `json:"_id"`
	User         model.User `json:"user"`
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.PendingVerification {
		// No session yet; the client must complete the OTP challenge first.
		writeEnvelope(w, envelope{
			StatusCode: http.StatusForbidden,
			Success:    false,
			Message:    "OTP is not verified, please verify your OTP",
			Data:       map[string]string{"email": result.User.Email},
		})
		return
	}

	h.setRefreshCookie(w, result.Tokens.RefreshToken)
	respond(w, http.StatusOK, "User Logged in successfully", loginData{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		Role:         result.User.Role,
		ID:           result.User.ID.String(),
		User:         result.User,
	})
}

// emailRequest is the request body for POST /api/auth/forget-password
type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgetPassword handles POST /api/auth/forget-password
func (h *AuthHandler) HandleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	// Per-address cap on OTP mail, independent of the route's IP limiter
	emailKey := middleware.GetEmailKey(strings.ToLower(req.Email))
	if !h.emailLimiter.Allow(emailKey) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if err := h.authService.ForgetPassword(r.Context(), req.Email); err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "OTP sent to your email", "")
}

// otpRequest is the request body for the OTP verification endpoints
type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"`
}

// HandleVerifyOTPForReset handles POST /api/auth/verify-otp-reset
func (h *AuthHandler) HandleVerifyOTPForReset(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.authService.VerifyResetOTP(r.Context(), req.Email, strings.TrimSpace(req.OTP)); err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "OTP Matched successfully", struct{}{})
}

// resetPasswordRequest is the request body for POST /api/auth/reset-password
type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "email, otp and password are required")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, strings.TrimSpace(req.OTP), req.Password); err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Password reset successfully", struct{}{})
}

// HandleVerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), req.Email, strings.TrimSpace(req.OTP)); err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "User verified", "")
}

// changePasswordRequest is the request body for PATCH /api/auth/change-password
type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword handles PATCH /api/auth/change-password (protected)
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Password changed", "")
}

// refreshRequest is the request body for POST /api/auth/refresh-token
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefreshToken handles POST /api/auth/refresh-token. The token is taken
// from the body, falling back to the login cookie.
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.authService.RefreshTokens(r.Context(), token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)
	respond(w, http.StatusOK, "Token refreshed successfully", map[string]string{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// HandleLogout handles POST /api/auth/logout (protected)
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	respond(w, http.StatusOK, "Logged out successfully", "")
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
