package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nihongo/internal/database"
	"nihongo/internal/models"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uid, display_name, email, photo_url, personal_info, learning_stats, settings, created_at, last_login_at, updated_at`

// CreateUser inserts a new profile
func (r *UserRepository) CreateUser(ctx context.Context, user *models.UserProfile) error {
	personalInfo, learningStats, settings, err := encodeProfileDocs(user)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		user.UID,
		user.DisplayName,
		user.Email,
		user.PhotoURL,
		personalInfo,
		learningStats,
		settings,
		user.CreatedAt.UTC(),
		user.LastLoginAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a profile by uid. Returns nil when the user does not exist.
func (r *UserRepository) GetUser(ctx context.Context, uid string) (*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = ?`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every profile ordered by creation time
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.UserProfile
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateLogin refreshes the identity fields copied from the sign-in provider
func (r *UserRepository) UpdateLogin(ctx context.Context, uid, displayName, email, photoURL string, at time.Time) error {
	query := `
		UPDATE users
		SET display_name = ?, email = ?, photo_url = ?, last_login_at = ?, updated_at = ?
		WHERE uid = ?
	`
	return r.execOne(ctx, "update login", query, displayName, email, photoURL, at.UTC(), at.UTC(), uid)
}

// UpdatePersonalInfo replaces the personal-info document
func (r *UserRepository) UpdatePersonalInfo(ctx context.Context, uid string, info models.PersonalInfo, at time.Time) error {
	return r.updateDoc(ctx, uid, "personal_info", info, at)
}

// UpdateLearningStats replaces the learning-stats document
func (r *UserRepository) UpdateLearningStats(ctx context.Context, uid string, stats models.LearningStats, at time.Time) error {
	return r.updateDoc(ctx, uid, "learning_stats", stats, at)
}

// UpdateSettings replaces the settings document
func (r *UserRepository) UpdateSettings(ctx context.Context, uid string, settings models.Settings, at time.Time) error {
	return r.updateDoc(ctx, uid, "settings", settings, at)
}

// updateDoc writes one JSON column. column is never user input.
func (r *UserRepository) updateDoc(ctx context.Context, uid, column string, doc any, at time.Time) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", column, err)
	}
	query := `UPDATE users SET ` + column + ` = ?, updated_at = ? WHERE uid = ?`
	return r.execOne(ctx, "update "+column, query, string(data), at.UTC(), uid)
}

func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeProfileDocs(user *models.UserProfile) (string, string, string, error) {
	personalInfo, err := json.Marshal(user.PersonalInfo)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode personal info: %w", err)
	}
	learningStats, err := json.Marshal(user.LearningStats)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode learning stats: %w", err)
	}
	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode settings: %w", err)
	}
	return string(personalInfo), string(learningStats), string(settings), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.UserProfile, error) {
	var (
		user                                  models.UserProfile
		personalInfo, learningStats, settings string
	)
	err := row.Scan(
		&user.UID,
		&user.DisplayName,
		&user.Email,
		&user.PhotoURL,
		&personalInfo,
		&learningStats,
		&settings,
		&user.CreatedAt,
		&user.LastLoginAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeDoc(personalInfo, &user.PersonalInfo); err != nil {
		return nil, fmt.Errorf("invalid personal info: %w", err)
	}
	if err := decodeDoc(learningStats, &user.LearningStats); err != nil {
		return nil, fmt.Errorf("invalid learning stats: %w", err)
	}
	if err := decodeDoc(settings, &user.Settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &user, nil
}

func decodeDoc(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
