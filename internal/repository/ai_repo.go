package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"nihongo/internal/database"
	"nihongo/internal/models"
)

// AIRepository stores generated question sets and chat transcripts per user
type AIRepository struct {
	db database.DBTX
}

// NewAIRepository creates a new AI repository
func NewAIRepository(db database.DBTX) *AIRepository {
	return &AIRepository{db: db}
}

// CreateQuestionSet stores a generated set
func (r *AIRepository) CreateQuestionSet(ctx context.Context, set *models.QuestionSet) error {
	questions, err := json.Marshal(set.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	query := `INSERT INTO question_sets (id, user_id, name, questions, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, set.ID, set.UserID, set.Name, string(questions), set.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to save question set: %w", err)
	}
	return nil
}

// GetQuestionSet retrieves a user's set. Returns nil when it does not exist.
func (r *AIRepository) GetQuestionSet(ctx context.Context, userID, id string) (*models.QuestionSet, error) {
	query := `SELECT id, user_id, name, questions, created_at FROM question_sets WHERE id = ? AND user_id = ?`
	set, err := scanQuestionSet(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question set: %w", err)
	}
	return set, nil
}

// ListQuestionSets returns a user's sets newest first
func (r *AIRepository) ListQuestionSets(ctx context.Context, userID string) ([]models.QuestionSet, error) {
	query := `SELECT id, user_id, name, questions, created_at FROM question_sets WHERE user_id = ? ORDER BY created_at DESC`
	return r.listSets(ctx, query, userID)
}

// ListAllQuestionSets returns every stored set
func (r *AIRepository) ListAllQuestionSets(ctx context.Context) ([]models.QuestionSet, error) {
	return r.listSets(ctx, `SELECT id, user_id, name, questions, created_at FROM question_sets ORDER BY created_at`)
}

func (r *AIRepository) listSets(ctx context.Context, query string, args ...interface{}) ([]models.QuestionSet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list question sets: %w", err)
	}
	defer rows.Close()

	sets := []models.QuestionSet{}
	for rows.Next() {
		set, err := scanQuestionSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question set: %w", err)
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

func scanQuestionSet(row rowScanner) (*models.QuestionSet, error) {
	var (
		set       models.QuestionSet
		questions string
	)
	if err := row.Scan(&set.ID, &set.UserID, &set.Name, &questions, &set.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeDoc(questions, &set.Questions); err != nil {
		return nil, fmt.Errorf("invalid questions: %w", err)
	}
	return &set, nil
}

// AppendMessage adds a chat turn and sets its id
func (r *AIRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `INSERT INTO chat_messages (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, msg.UserID, msg.Role, msg.Content, msg.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	msg.ID = id
	return nil
}

// ListMessages returns the latest limit messages of a user in chronological order
func (r *AIRepository) ListMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, content, created_at
		FROM chat_messages
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ClearMessages deletes a user's transcript
func (r *AIRepository) ClearMessages(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}
	return nil
}
