package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"nihongo/internal/database"
	"nihongo/internal/models"
)

// ExamRepository stores completed exam attempts. Rows are never updated.
type ExamRepository struct {
	db database.DBTX
}

// NewExamRepository creates a new exam repository
func NewExamRepository(db database.DBTX) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, user_id, user_email, user_name, exam_id, exam_title, exam_type, score, total_questions,
	percentage, grade, time_spent, answers, flagged_questions, completed_at, created_at`

// CreateResult appends one result
func (r *ExamRepository) CreateResult(ctx context.Context, result *models.ExamResult) error {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	flagged := result.FlaggedQuestions
	if flagged == nil {
		flagged = []int{}
	}
	flaggedJSON, err := json.Marshal(flagged)
	if err != nil {
		return fmt.Errorf("failed to encode flagged questions: %w", err)
	}

	query := `
		INSERT INTO exam_results (` + examColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.UserID,
		result.UserEmail,
		result.UserName,
		result.ExamID,
		result.ExamTitle,
		result.ExamType,
		result.Score,
		result.TotalQuestions,
		result.Percentage,
		string(result.Grade),
		result.TimeSpent,
		string(answers),
		string(flaggedJSON),
		result.CompletedAt.UTC(),
		result.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save exam result: %w", err)
	}
	return nil
}

// ListByUser returns a user's results, newest first, at most limit rows
func (r *ExamRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ExamResult, error) {
	query := `SELECT ` + examColumns + ` FROM exam_results WHERE user_id = ? ORDER BY completed_at DESC LIMIT ?`
	return r.list(ctx, query, userID, limit)
}

// ListAllByUser returns every result of a user, newest first
func (r *ExamRepository) ListAllByUser(ctx context.Context, userID string) ([]models.ExamResult, error) {
	query := `SELECT ` + examColumns + ` FROM exam_results WHERE user_id = ? ORDER BY completed_at DESC`
	return r.list(ctx, query, userID)
}

// ListAll returns every stored result, oldest first
func (r *ExamRepository) ListAll(ctx context.Context) ([]models.ExamResult, error) {
	return r.list(ctx, `SELECT `+examColumns+` FROM exam_results ORDER BY completed_at`)
}

func (r *ExamRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.ExamResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exam results: %w", err)
	}
	defer rows.Close()

	results := []models.ExamResult{}
	for rows.Next() {
		var (
			res              models.ExamResult
			grade            string
			answers, flagged string
		)
		err := rows.Scan(
			&res.ID,
			&res.UserID,
			&res.UserEmail,
			&res.UserName,
			&res.ExamID,
			&res.ExamTitle,
			&res.ExamType,
			&res.Score,
			&res.TotalQuestions,
			&res.Percentage,
			&grade,
			&res.TimeSpent,
			&answers,
			&flagged,
			&res.CompletedAt,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam result: %w", err)
		}
		res.Grade = models.Grade(grade)
		if err := decodeDoc(answers, &res.Answers); err != nil {
			return nil, fmt.Errorf("invalid answers for result %s: %w", res.ID, err)
		}
		if err := decodeDoc(flagged, &res.FlaggedQuestions); err != nil {
			return nil, fmt.Errorf("invalid flagged questions for result %s: %w", res.ID, err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
