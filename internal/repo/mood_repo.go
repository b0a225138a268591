package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/moodlog/server/internal/model"
)

// ErrDuplicateDate indicates the user already has a log for that date.
var ErrDuplicateDate = errors.New("log already exists for date")

const moodColumns = `id, user_id, date, mood, emoji_code, thoughts, satisfaction,
       water_glasses, sleep_hours, status, created_at, updated_at`

// MoodRepo defines the interface for mood log repository operations
type MoodRepo interface {
	Create(ctx context.Context, log model.MoodLog) (model.MoodLog, error)
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (model.MoodLog, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (model.MoodLog, error)
	UpdateSatisfaction(ctx context.Context, id uuid.UUID, satisfaction string) error
	UpdateTrackers(ctx context.Context, id uuid.UUID, waterGlasses, sleepHours int) error
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.MoodLog, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]model.MoodLog, error)
	GetCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) (model.MoodLog, error)
}

type moodRepo struct {
	db *sql.DB
}

// NewMoodRepo creates a new MoodRepo instance
func NewMoodRepo(db *sql.DB) MoodRepo {
	return &moodRepo{db: db}
}

// Create inserts a new mood log for the user's day
func (r *moodRepo) Create(ctx context.Context, log model.MoodLog) (model.MoodLog, error) {
	query := `
		INSERT INTO mood_logs (user_id, date, mood, emoji_code, thoughts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + moodColumns
	row := r.db.QueryRowContext(ctx, query,
		log.UserID.String(), log.Date, log.Mood, log.EmojiCode, log.Thoughts)
	created, err := scanMood(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.MoodLog{}, ErrDuplicateDate
		}
		return model.MoodLog{}, fmt.Errorf("failed to insert mood log: %w", err)
	}
	return created, nil
}

// GetByUserAndDate retrieves the user's log for a specific date
func (r *moodRepo) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (model.MoodLog, error) {
	query := `SELECT ` + moodColumns + ` FROM mood_logs WHERE user_id = $1 AND date = $2`
	row := r.db.QueryRowContext(ctx, query, userID.String(), date)
	return oneMood(row)
}

// GetByID retrieves a log by ID, scoped to the owning user
func (r *moodRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (model.MoodLog, error) {
	query := `SELECT ` + moodColumns + ` FROM mood_logs WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, query, id.String(), userID.String())
	return oneMood(row)
}

// UpdateSatisfaction sets the satisfaction level for the log
func (r *moodRepo) UpdateSatisfaction(ctx context.Context, id uuid.UUID, satisfaction string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE mood_logs SET satisfaction = $2, updated_at = now() WHERE id = $1
	`, id.String(), satisfaction)
	if err != nil {
		return fmt.Errorf("update satisfaction: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTrackers sets water and sleep counters for the log
func (r *moodRepo) UpdateTrackers(ctx context.Context, id uuid.UUID, waterGlasses, sleepHours int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE mood_logs SET water_glasses = $2, sleep_hours = $3, updated_at = now() WHERE id = $1
	`, id.String(), waterGlasses, sleepHours)
	if err != nil {
		return fmt.Errorf("update trackers: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSince returns the user's logs dated on or after since, newest first
func (r *moodRepo) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]model.MoodLog, error) {
	query := `SELECT ` + moodColumns + ` FROM mood_logs WHERE user_id = $1 AND date >= $2 ORDER BY date DESC`
	return r.list(ctx, query, userID.String(), since)
}

// ListAll returns all of the user's logs, newest first
func (r *moodRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]model.MoodLog, error) {
	query := `SELECT ` + moodColumns + ` FROM mood_logs WHERE user_id = $1 ORDER BY date DESC`
	return r.list(ctx, query, userID.String())
}

// GetCreatedBetween returns the user's log created inside [start, end]
func (r *moodRepo) GetCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) (model.MoodLog, error) {
	query := `SELECT ` + moodColumns + ` FROM mood_logs
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3`
	row := r.db.QueryRowContext(ctx, query, userID.String(), start, end)
	return oneMood(row)
}

func (r *moodRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.MoodLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mood logs: %w", err)
	}
	defer rows.Close()

	var logs []model.MoodLog
	for rows.Next() {
		log, err := scanMood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mood log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mood logs: %w", err)
	}
	return logs, nil
}

func oneMood(row rowScanner) (model.MoodLog, error) {
	log, err := scanMood(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MoodLog{}, ErrNotFound
		}
		return model.MoodLog{}, fmt.Errorf("failed to query mood log: %w", err)
	}
	return log, nil
}

func scanMood(row rowScanner) (model.MoodLog, error) {
	var log model.MoodLog
	var idStr, userIDStr string
	err := row.Scan(
		&idStr,
		&userIDStr,
		&log.Date,
		&log.Mood,
		&log.EmojiCode,
		&log.Thoughts,
		&log.Satisfaction,
		&log.WaterGlasses,
		&log.SleepHours,
		&log.Status,
		&log.CreatedAt,
		&log.UpdatedAt,
	)
	if err != nil {
		return model.MoodLog{}, err
	}
	log.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.MoodLog{}, fmt.Errorf("failed to parse log ID: %w", err)
	}
	log.UserID, err = uuid.Parse(userIDStr)
	if err != nil {
		return model.MoodLog{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return log, nil
}
