package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/moodlog/server/internal/model"
)

// SessionClaims represents the claims carried by access and refresh tokens
type SessionClaims struct {
	UserID uuid.UUID `json:"_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// OTPClaims represents the claims carried by OTP tokens (the numeric code only)
type OTPClaims struct {
	OTP string `json:"otp"`
	jwt.RegisteredClaims
}

// TokenConfig holds the secret/TTL pair for each token class
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	OTPSecret     string
	OTPTTL        time.Duration
}

// TokenService issues and verifies the three token classes. Each class has an
// independent secret and TTL; verification failures of any kind surface as
// ErrInvalidToken so callers cannot distinguish expired from forged.
type TokenService struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	otpSecret     []byte
	otpTTL        time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		otpSecret:     []byte(cfg.OTPSecret),
		otpTTL:        cfg.OTPTTL,
	}
}

// SignAccessToken creates a short-lived access token carrying id/email/role
func (s *TokenService) SignAccessToken(u model.User) (string, error) {
	return signSession(u, s.accessSecret, s.accessTTL)
}

// SignRefreshToken creates a long-lived refresh token carrying the same claims
func (s *TokenService) SignRefreshToken(u model.User) (string, error) {
	return signSession(u, s.refreshSecret, s.refreshTTL)
}

// SignOTPToken creates a short-lived token carrying only the numeric code
func (s *TokenService) SignOTPToken(code string) (string, error) {
	now := time.Now()
	claims := &OTPClaims{
		OTP: code,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.otpTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.otpSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign OTP token: %w", err)
	}
	return tokenString, nil
}

// VerifyAccessToken verifies and parses an access token
func (s *TokenService) VerifyAccessToken(tokenString string) (*SessionClaims, error) {
	return verifySession(tokenString, s.accessSecret)
}

// VerifyRefreshToken verifies and parses a refresh token
func (s *TokenService) VerifyRefreshToken(tokenString string) (*SessionClaims, error) {
	return verifySession(tokenString, s.refreshSecret)
}

// VerifyOTPToken verifies and parses an OTP token
func (s *TokenService) VerifyOTPToken(tokenString string) (*OTPClaims, error) {
	claims := &OTPClaims{}
	if err := parseInto(tokenString, s.otpSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func signSession(u model.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func verifySession(tokenString string, secret []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parseInto(tokenString, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseInto(tokenString string, secret []byte, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
