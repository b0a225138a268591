package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/moodlog/server/internal/mail"
	"github.com/moodlog/server/internal/model"
	"github.com/moodlog/server/internal/repo"
)

// AuthService orchestrates registration, login, OTP verification, password
// reset, refresh and logout. All state lives on the persisted user record;
// concurrent requests for the same user race last-writer-wins on the token
// fields (known, accepted for this domain).
type AuthService struct {
	users      repo.UserRepo
	tokens     *TokenService
	mailer     mail.Mailer
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(users repo.UserRepo, tokens *TokenService, mailer mail.Mailer, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		bcryptCost: bcryptCost,
	}
}

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// SessionTokens is a freshly minted access/refresh pair.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is the outcome of Login. When PendingVerification is true no
// session tokens were issued; the caller must complete the OTP challenge.
type LoginResult struct {
	PendingVerification bool
	User                model.User
	Tokens              SessionTokens
}

// Register creates an account and issues a session.
// Note: accounts are created verified, matching the legacy contract; the OTP
// login branch only triggers for accounts flipped to unverified elsewhere.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, SessionTokens, error) {
	if in.Email == "" || in.Password == "" {
		return model.User{}, SessionTokens{}, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return model.User{}, SessionTokens{}, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return model.User{}, SessionTokens{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		Role:         "user",
		PasswordHash: string(hash),
		Verified:     true,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return model.User{}, SessionTokens{}, ErrEmailExists
		}
		return model.User{}, SessionTokens{}, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return model.User{}, SessionTokens{}, err
	}
	return user, tokens, nil
}

// Login authenticates the user. Unverified accounts receive a fresh OTP
// challenge by mail instead of session tokens; verified accounts get a new
// access/refresh pair, rotating the stored refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmailWithPassword(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LoginResult{}, ErrUserNotFound
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrWrongPassword
	}

	if !user.Verified {
		code, err := GenerateOTP()
		if err != nil {
			return LoginResult{}, err
		}
		otpToken, err := s.tokens.SignOTPToken(code)
		if err != nil {
			return LoginResult{}, err
		}
		// A new challenge invalidates any outstanding one.
		if err := s.users.SetVerificationToken(ctx, user.ID, otpToken); err != nil {
			return LoginResult{}, fmt.Errorf("store verification token: %w", err)
		}
		if err := s.mailer.Send(ctx, user.Email, "Registered Account", "Your OTP is "+code); err != nil {
			return LoginResult{}, fmt.Errorf("send verification mail: %w", err)
		}
		user.PasswordHash = ""
		return LoginResult{PendingVerification: true, User: user}, nil
	}

	tokens, err := s.issueSession(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}
	user.PasswordHash = ""
	return LoginResult{User: user, Tokens: tokens}, nil
}

// VerifyEmail consumes the outstanding verification challenge. On success the
// stored token is cleared, so a repeated call with the same code fails.
func (s *AuthService) VerifyEmail(ctx context.Context, email, otp string) error {
	if otp == "" {
		return ErrOTPRequired
	}
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.VerificationToken == "" {
		return ErrNoPendingVerification
	}
	claims, err := s.tokens.VerifyOTPToken(user.VerificationToken)
	if err != nil {
		return ErrInvalidOTP
	}
	if !otpEqual(claims.OTP, otp) {
		return ErrInvalidOTP
	}
	return s.users.SetVerificationToken(ctx, user.ID, "")
}

// ForgetPassword starts a password reset: mints an OTP token, stores it on the
// user record and mails the code. Delivery is best-effort.
func (s *AuthService) ForgetPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	otpToken, err := s.tokens.SignOTPToken(code)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordResetToken(ctx, user.ID, otpToken); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(sendCtx, user.Email, "Reset Password", "Your OTP is "+code); err != nil {
			log.Printf("reset mail to %s failed: %v", mail.MaskEmail(user.Email), err)
		}
	}()
	return nil
}

// VerifyResetOTP checks the supplied code against the in-flight reset token.
// It has no side effect; the token stays valid for ResetPassword.
func (s *AuthService) VerifyResetOTP(ctx context.Context, email, otp string) error {
	_, err := s.resetChallengeUser(ctx, email, otp)
	return err
}

// ResetPassword re-validates the reset challenge and sets the new password.
// The reset token is not cleared afterwards; the replay window stays open
// until the next ForgetPassword call.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	user, err := s.resetChallengeUser(ctx, email, otp)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

// ChangePassword sets a new password for an authenticated user after checking
// the old one against the stored hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrPasswordRequired
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}
	user, err := s.users.GetByIDWithPassword(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

// RefreshTokens rotates the session. The supplied token must both verify and
// match the single value stored on the user record.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (SessionTokens, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return SessionTokens{}, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return SessionTokens{}, ErrInvalidToken
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return SessionTokens{}, ErrInvalidToken
	}
	return s.issueSession(ctx, user)
}

// Logout clears the stored refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.users.SetRefreshToken(ctx, userID, "")
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	return err
}

// issueSession mints an access/refresh pair and persists the refresh token,
// invalidating any previously stored one.
func (s *AuthService) issueSession(ctx context.Context, user model.User) (SessionTokens, error) {
	accessToken, err := s.tokens.SignAccessToken(user)
	if err != nil {
		return SessionTokens{}, err
	}
	refreshToken, err := s.tokens.SignRefreshToken(user)
	if err != nil {
		return SessionTokens{}, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}
	return SessionTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// resetChallengeUser loads the user and validates the reset OTP without
// consuming it.
func (s *AuthService) resetChallengeUser(ctx context.Context, email, otp string) (model.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordResetToken == "" {
		return model.User{}, ErrNoResetRequest
	}
	claims, err := s.tokens.VerifyOTPToken(user.PasswordResetToken)
	if err != nil {
		return model.User{}, ErrNoResetRequest
	}
	if !otpEqual(claims.OTP, otp) {
		return model.User{}, ErrInvalidOTP
	}
	return user, nil
}

// NormalizeEmail lowercases and trims an address for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
