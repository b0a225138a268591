package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/moodlog/server/internal/model"
)

var (
	// ErrNotFound indicates no row matched the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail indicates the email unique index was violated.
	ErrDuplicateEmail = errors.New("email already registered")
)

const userColumns = `id, name, username, phone, email, role, verified, verification_token,
       password_reset_token, refresh_token, last_active, created_at, updated_at`

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByIDWithPassword(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (model.User, error)
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string) error
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastActive(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

// Create inserts a new user. The password must already be hashed.
func (r *userRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	query := `
		INSERT INTO users (name, username, phone, email, role, password_hash, verified, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query,
		u.Name, u.Username, u.Phone, u.Email, u.Role, u.PasswordHash, u.Verified, u.VerificationToken)
	created, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

// GetByID retrieves a user by ID (password hash excluded)
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id.String())
}

// GetByIDWithPassword retrieves a user by ID including the password hash
func (r *userRepo) GetByIDWithPassword(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE id = $1`
	return r.getOneWithPassword(ctx, query, id.String())
}

// GetByEmail retrieves a user by email, matched case-insensitively (password hash excluded)
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

// GetByEmailWithPassword retrieves a user by email including the password hash
func (r *userRepo) GetByEmailWithPassword(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE lower(email) = lower($1)`
	return r.getOneWithPassword(ctx, query, email)
}

// SetVerificationToken stores the outstanding verification challenge token.
// A new token overwrites the old one; the empty string clears the challenge.
func (r *userRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.setField(ctx, "verification_token", id, token)
}

// SetPasswordResetToken stores the in-flight password reset token.
func (r *userRepo) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.setField(ctx, "password_reset_token", id, token)
}

// SetRefreshToken stores the single-valued refresh token for the user.
func (r *userRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.setField(ctx, "refresh_token", id, token)
}

// UpdatePassword replaces the stored password hash.
func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.setField(ctx, "password_hash", id, passwordHash)
}

// TouchLastActive sets last_active to now.
func (r *userRepo) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_active = now(), updated_at = now() WHERE id = $1
	`, id.String())
	if err != nil {
		return fmt.Errorf("touch last_active: %w", err)
	}
	return nil
}

func (r *userRepo) setField(ctx context.Context, column string, id uuid.UUID, value string) error {
	// column is always one of the fixed names above, never caller input
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE id = $1`, column)
	result, err := r.db.ExecContext(ctx, query, id.String(), value)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) getOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (r *userRepo) getOneWithPassword(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var user model.User
	var idStr string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&idStr,
		&user.Name,
		&user.Username,
		&user.Phone,
		&user.Email,
		&user.Role,
		&user.Verified,
		&user.VerificationToken,
		&user.PasswordResetToken,
		&user.RefreshToken,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (model.User, error) {
	var user model.User
	var idStr string
	err := row.Scan(
		&idStr,
		&user.Name,
		&user.Username,
		&user.Phone,
		&user.Email,
		&user.Role,
		&user.Verified,
		&user.VerificationToken,
		&user.PasswordResetToken,
		&user.RefreshToken,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return user, nil
}
