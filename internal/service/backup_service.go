package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/database"
	"nihongo/internal/models"
	"nihongo/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string                `json:"version"`
	ExportedAt    time.Time             `json:"exported_at"`
	DatabaseType  string                `json:"database_type"`
	Users         []models.UserProfile  `json:"users"`
	ExamResults   []models.ExamResult   `json:"exam_results"`
	Notifications []models.Notification `json:"notifications"`
	Receipts      []repository.Receipt  `json:"receipts"`
	QuestionSets  []models.QuestionSet  `json:"question_sets"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// Export writes a complete backup of the database as JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	s.logger.Info("Starting database export")

	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().MigrationsSubdir(),
	}

	var err error
	if backup.Users, err = repository.NewUserRepository(s.db).ListUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if backup.ExamResults, err = repository.NewExamRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export exam results: %w", err)
	}
	notifications := repository.NewNotificationRepository(s.db)
	if backup.Notifications, err = notifications.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export notifications: %w", err)
	}
	if backup.Receipts, err = notifications.ListReceipts(ctx); err != nil {
		return nil, fmt.Errorf("failed to export receipts: %w", err)
	}
	if backup.QuestionSets, err = repository.NewAIRepository(s.db).ListAllQuestionSets(ctx); err != nil {
		return nil, fmt.Errorf("failed to export question sets: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Database exported",
		zap.Int("users", len(backup.Users)),
		zap.Int("examResults", len(backup.ExamResults)),
		zap.Int("notifications", len(backup.Notifications)),
		zap.Int("receipts", len(backup.Receipts)),
		zap.Int("questionSets", len(backup.QuestionSets)),
	)
	return backup, nil
}

// Import restores a backup inside one transaction. Rows that already exist
// make the import fail and nothing is written.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	s.logger.Info("Starting database import",
		zap.String("version", backup.Version),
		zap.Time("exportedAt", backup.ExportedAt),
	)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	users := repository.NewUserRepository(tx)
	for i := range backup.Users {
		if err := users.CreateUser(ctx, &backup.Users[i]); err != nil {
			return nil, fmt.Errorf("failed to import user %s: %w", backup.Users[i].UID, err)
		}
	}

	exams := repository.NewExamRepository(tx)
	for i := range backup.ExamResults {
		if err := exams.CreateResult(ctx, &backup.ExamResults[i]); err != nil {
			return nil, fmt.Errorf("failed to import exam result %s: %w", backup.ExamResults[i].ID, err)
		}
	}

	notifications := repository.NewNotificationRepository(tx)
	for i := range backup.Notifications {
		if err := notifications.CreateNotification(ctx, &backup.Notifications[i]); err != nil {
			return nil, fmt.Errorf("failed to import notification %s: %w", backup.Notifications[i].ID, err)
		}
	}
	for _, rc := range backup.Receipts {
		if err := notifications.SaveReceipt(ctx, rc); err != nil {
			return nil, fmt.Errorf("failed to import receipt: %w", err)
		}
	}

	sets := repository.NewAIRepository(tx)
	for i := range backup.QuestionSets {
		if err := sets.CreateQuestionSet(ctx, &backup.QuestionSets[i]); err != nil {
			return nil, fmt.Errorf("failed to import question set %s: %w", backup.QuestionSets[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	s.logger.Info("Database import completed")
	return &backup, nil
}

// Clear deletes all stored data
func (s *BackupService) Clear(ctx context.Context) error {
	tables := []string{
		"chat_messages",
		"question_sets",
		"user_notifications",
		"notifications",
		"exam_results",
		"users",
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		s.logger.Info("Cleared table", zap.String("table", table))
	}
	return tx.Commit()
}
