package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/server/internal/model"
	"github.com/moodlog/server/internal/repo"
)

// fakeUserRepo is an in-memory UserRepo for service tests
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return model.User{}, repo.ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	u.PasswordHash = ""
	return u, nil
}

func (r *fakeUserRepo) GetByIDWithPassword(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, err := r.GetByEmailWithPassword(context.Background(), email)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (r *fakeUserRepo) GetByEmailWithPassword(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r *fakeUserRepo) SetVerificationToken(_ context.Context, id uuid.UUID, token string) error {
	return r.update(id, func(u *model.User) { u.VerificationToken = token })
}

func (r *fakeUserRepo) SetPasswordResetToken(_ context.Context, id uuid.UUID, token string) error {
	return r.update(id, func(u *model.User) { u.PasswordResetToken = token })
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	return r.update(id, func(u *model.User) { u.RefreshToken = token })
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return r.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (r *fakeUserRepo) TouchLastActive(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(u *model.User) { u.LastActive = time.Now() })
}

func (r *fakeUserRepo) update(id uuid.UUID, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) setVerified(id uuid.UUID, verified bool) {
	_ = r.update(id, func(u *model.User) { u.Verified = verified })
}

func (r *fakeUserRepo) get(id uuid.UUID) model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// recordingMailer captures deliveries for assertions
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m.mu.Lock()
		n := len(m.sent)
		var last sentMail
		if n > 0 {
			last = m.sent[n-1]
		}
		m.mu.Unlock()
		if n > 0 {
			return last
		}
		if time.Now().After(deadline) {
			t.Fatal("no mail was sent")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// otpFromBody extracts the numeric code from "Your OTP is 123456"
func otpFromBody(t *testing.T, body string) string {
	t.Helper()
	parts := strings.Fields(body)
	require.NotEmpty(t, parts)
	return parts[len(parts)-1]
}

func newTestService(t *testing.T) (*AuthService, *fakeUserRepo, *recordingMailer) {
	t.Helper()
	users := newFakeUserRepo()
	mailer := &recordingMailer{}
	svc := NewAuthService(users, newTestTokenService(), mailer, 4)
	return svc, users, mailer
}

func register(t *testing.T, svc *AuthService, email, password string) model.User {
	t.Helper()
	user, tokens, err := svc.Register(context.Background(), RegisterInput{
		Name:            "Test User",
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	return user
}

func TestRegister(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "user", user.Role)
	assert.True(t, user.Verified, "accounts are created verified")

	stored := users.get(user.ID)
	assert.NotEmpty(t, stored.RefreshToken, "register must persist a refresh token")
	assert.NotEqual(t, "secret123", stored.PasswordHash, "password must be hashed")

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterInput{Email: "", Password: "x", ConfirmPassword: "x"})
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("password mismatch", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterInput{
			Email: "bob@example.com", Password: "one", ConfirmPassword: "two",
		})
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterInput{
			Email: "Alice@Example.com", Password: "secret123", ConfirmPassword: "secret123",
		})
		assert.ErrorIs(t, err, ErrEmailExists, "email match is case-insensitive")
	})
}

func TestLogin_verified(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")
	firstRefresh := users.get(user.ID).RefreshToken

	result, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.False(t, result.PendingVerification)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.Empty(t, result.User.PasswordHash)

	// Login rotates the stored refresh token
	assert.Equal(t, result.Tokens.RefreshToken, users.get(user.ID).RefreshToken)
	assert.NotEqual(t, firstRefresh, result.Tokens.RefreshToken)

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})
}

func TestLogin_unverifiedGetsOTPChallenge(t *testing.T) {
	svc, users, mailer := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")
	users.setVerified(user.ID, false)

	result, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, result.PendingVerification)
	assert.Empty(t, result.Tokens.AccessToken, "no session before verification")
	assert.Equal(t, "alice@example.com", result.User.Email)

	msg := mailer.last(t)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Registered Account", msg.Subject)
	assert.NotEmpty(t, users.get(user.ID).VerificationToken, "challenge token must be stored")

	// A second login replaces the outstanding challenge
	firstToken := users.get(user.ID).VerificationToken
	_, err = svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, firstToken, users.get(user.ID).VerificationToken)
}

func TestVerifyEmail(t *testing.T) {
	svc, users, mailer := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")
	users.setVerified(user.ID, false)
	_, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	code := otpFromBody(t, mailer.last(t).Body)

	t.Run("missing OTP", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyEmail(ctx, "alice@example.com", ""), ErrOTPRequired)
	})

	t.Run("wrong OTP", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		assert.ErrorIs(t, svc.VerifyEmail(ctx, "alice@example.com", wrong), ErrInvalidOTP)
	})

	t.Run("correct OTP clears the challenge", func(t *testing.T) {
		require.NoError(t, svc.VerifyEmail(ctx, "alice@example.com", code))
		assert.Empty(t, users.get(user.ID).VerificationToken)
	})

	t.Run("replay fails", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyEmail(ctx, "alice@example.com", code), ErrNoPendingVerification)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyEmail(ctx, "nobody@example.com", code), ErrUserNotFound)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	svc, users, mailer := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")

	require.NoError(t, svc.ForgetPassword(ctx, "alice@example.com"))
	msg := mailer.last(t)
	assert.Equal(t, "Reset Password", msg.Subject)
	code := otpFromBody(t, msg.Body)
	require.NotEmpty(t, users.get(user.ID).PasswordResetToken)

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.ForgetPassword(ctx, "nobody@example.com"), ErrUserNotFound)
	})

	t.Run("verify without side effect", func(t *testing.T) {
		require.NoError(t, svc.VerifyResetOTP(ctx, "alice@example.com", code))
		require.NoError(t, svc.VerifyResetOTP(ctx, "alice@example.com", code), "verification is repeatable")
	})

	t.Run("wrong OTP", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		assert.ErrorIs(t, svc.VerifyResetOTP(ctx, "alice@example.com", wrong), ErrInvalidOTP)
	})

	t.Run("no reset requested", func(t *testing.T) {
		register(t, svc, "bob@example.com", "secret123")
		assert.ErrorIs(t, svc.VerifyResetOTP(ctx, "bob@example.com", code), ErrNoResetRequest)
	})

	t.Run("reset changes the password", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", code, "newsecret"))

		_, err := svc.Login(ctx, "alice@example.com", "secret123")
		assert.ErrorIs(t, err, ErrWrongPassword)
		result, err := svc.Login(ctx, "alice@example.com", "newsecret")
		require.NoError(t, err)
		assert.False(t, result.PendingVerification)
	})

	t.Run("token survives reset", func(t *testing.T) {
		// Known contract: the reset token stays until the next ForgetPassword
		assert.NotEmpty(t, users.get(user.ID).PasswordResetToken)
		require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", code, "anothersecret"))
	})
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")

	t.Run("missing fields", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "", "new"), ErrPasswordRequired)
		assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "old", ""), ErrPasswordRequired)
	})

	t.Run("same password", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "secret123", "secret123"), ErrSamePassword)
	})

	t.Run("wrong old password", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong", "newsecret"), ErrWrongPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangePassword(ctx, uuid.New(), "secret123", "newsecret"), ErrUserNotFound)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret123", "newsecret"))
		_, err := svc.Login(ctx, "alice@example.com", "newsecret")
		require.NoError(t, err)
	})
}

func TestRefreshTokens(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")
	result, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	oldRefresh := result.Tokens.RefreshToken

	t.Run("happy path rotates", func(t *testing.T) {
		tokens, err := svc.RefreshTokens(ctx, oldRefresh)
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEqual(t, oldRefresh, tokens.RefreshToken)
		assert.Equal(t, tokens.RefreshToken, users.get(user.ID).RefreshToken)
	})

	t.Run("old token is dead after rotation", func(t *testing.T) {
		_, err := svc.RefreshTokens(ctx, oldRefresh)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.RefreshTokens(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("valid token for deleted user", func(t *testing.T) {
		ghost := model.User{ID: uuid.New(), Email: "ghost@example.com", Role: "user"}
		token, err := newTestTokenService().SignRefreshToken(ghost)
		require.NoError(t, err)
		_, err = svc.RefreshTokens(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "alice@example.com", "secret123")
	result, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))
	assert.Empty(t, users.get(user.ID).RefreshToken)

	// Refresh after logout fails
	_, err = svc.RefreshTokens(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Logout is idempotent, even for unknown users
	require.NoError(t, svc.Logout(ctx, user.ID))
	require.NoError(t, svc.Logout(ctx, uuid.New()))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.COM "))
	assert.Equal(t, "a@b.com", NormalizeEmail("a@b.com"))
}
