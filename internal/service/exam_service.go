package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/models"
	"nihongo/internal/quiz"
	"nihongo/internal/utils"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// ExamRecord identifies what was attempted when a result is saved
type ExamRecord struct {
	ExamID    string
	ExamTitle string
	ExamType  string
	Result    *quiz.Result
}

// ExamService stores exam results and aggregates history
type ExamService struct {
	exams  ExamStore
	users  *UserService
	mailer Mailer
	logger *zap.Logger
	now    func() time.Time
}

// NewExamService creates a new exam service. users and mailer may be nil.
func NewExamService(exams ExamStore, users *UserService, mailer Mailer, logger *zap.Logger) *ExamService {
	return &ExamService{
		exams:  exams,
		users:  users,
		mailer: mailer,
		logger: logger,
		now:    time.Now,
	}
}

// SaveResult appends one result. It is not idempotent and is never retried;
// learning stats and the summary email are best effort once the row exists.
func (s *ExamService) SaveResult(ctx context.Context, session *models.Session, rec ExamRecord) (*models.ExamResult, error) {
	if rec.Result == nil {
		return nil, ErrResultNotReady
	}

	flagged := rec.Result.Flagged
	if flagged == nil {
		flagged = []int{}
	}
	answers := rec.Result.Answers
	if answers == nil {
		answers = map[string]string{}
	}

	result := &models.ExamResult{
		ID:               utils.NewID(),
		UserID:           session.UserID,
		UserEmail:        session.Email,
		UserName:         session.Name,
		ExamID:           rec.ExamID,
		ExamTitle:        rec.ExamTitle,
		ExamType:         rec.ExamType,
		Score:            rec.Result.Score,
		TotalQuestions:   rec.Result.Total,
		Percentage:       rec.Result.Percentage,
		Grade:            rec.Result.Grade,
		TimeSpent:        rec.Result.TimeSpent,
		Answers:          answers,
		FlaggedQuestions: flagged,
		CompletedAt:      rec.Result.CompletedAt,
		CreatedAt:        s.now(),
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = result.CreatedAt
	}

	if err := s.exams.CreateResult(ctx, result); err != nil {
		s.logger.Error("Failed to save exam result",
			zap.String("uid", session.UserID),
			zap.String("examId", rec.ExamID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save exam result: %w", err)
	}

	s.logger.Info("Saved exam result",
		zap.String("uid", session.UserID),
		zap.String("examType", rec.ExamType),
		zap.Int("score", result.Score),
		zap.Int("total", result.TotalQuestions),
		zap.String("grade", string(result.Grade)),
	)

	if s.users != nil {
		if err := s.users.RecordStudy(ctx, session.UserID, result.TimeSpent); err != nil {
			s.logger.Warn("Failed to update learning stats", zap.String("uid", session.UserID), zap.Error(err))
		}
	}
	if s.mailer != nil && session.Email != "" {
		if err := s.mailer.SendExamResultEmail(ctx, session.Email, session.Name, result); err != nil {
			s.logger.Warn("Failed to send exam result email", zap.String("uid", session.UserID), zap.Error(err))
		}
	}

	return result, nil
}

// History returns the newest results of a user
func (s *ExamService) History(ctx context.Context, userID string, limit int) ([]models.ExamResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	results, err := s.exams.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam history: %w", err)
	}
	if results == nil {
		results = []models.ExamResult{}
	}
	return results, nil
}

// Stats aggregates every result of a user
func (s *ExamService) Stats(ctx context.Context, userID string) (*models.ExamStats, error) {
	results, err := s.exams.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam results: %w", err)
	}
	models.SortResultsNewestFirst(results)
	stats := models.ComputeExamStats(results)
	return &stats, nil
}
