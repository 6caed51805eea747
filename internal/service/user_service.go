package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/models"
	"nihongo/internal/repository"
	"nihongo/internal/validation"
)

var ErrProfileNotFound = errors.New("profile not found")

// UserService manages the profile sub-records
type UserService struct {
	users  UserStore
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users UserStore, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger, now: time.Now}
}

// Profile returns the profile of the signed-in user
func (s *UserService) Profile(ctx context.Context, session *models.Session) (*models.UserProfile, error) {
	profile, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	profile.IsAdmin = session.IsAdmin
	return profile, nil
}

// UpdatePersonalInfo validates and replaces the personal info
func (s *UserService) UpdatePersonalInfo(ctx context.Context, uid string, info models.PersonalInfo) (*models.PersonalInfo, error) {
	if err := validation.ValidatePersonalInfo(info); err != nil {
		return nil, err
	}
	now := s.now()
	info.UpdatedAt = &now
	if err := s.users.UpdatePersonalInfo(ctx, uid, info, now); err != nil {
		return nil, mapNotFound(err)
	}
	return &info, nil
}

// UpdateLearningStats validates and replaces the learning stats
func (s *UserService) UpdateLearningStats(ctx context.Context, uid string, stats models.LearningStats) (*models.LearningStats, error) {
	if err := validation.ValidateLearningStats(stats); err != nil {
		return nil, err
	}
	if stats.FavoriteTopics == nil {
		stats.FavoriteTopics = []string{}
	}
	now := s.now()
	stats.UpdatedAt = &now
	if err := s.users.UpdateLearningStats(ctx, uid, stats, now); err != nil {
		return nil, mapNotFound(err)
	}
	return &stats, nil
}

// UpdateSettings validates and replaces the settings
func (s *UserService) UpdateSettings(ctx context.Context, uid string, settings models.Settings) (*models.Settings, error) {
	if err := validation.ValidateSettings(settings); err != nil {
		return nil, err
	}
	now := s.now()
	settings.UpdatedAt = &now
	if err := s.users.UpdateSettings(ctx, uid, settings, now); err != nil {
		return nil, mapNotFound(err)
	}
	return &settings, nil
}

// RecordStudy adds a completed session to the user's learning stats
func (s *UserService) RecordStudy(ctx context.Context, uid string, seconds int) error {
	profile, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	now := s.now()
	stats := profile.LearningStats
	stats.RecordSession(now, seconds)
	stats.UpdatedAt = &now
	if err := s.users.UpdateLearningStats(ctx, uid, stats, now); err != nil {
		return mapNotFound(err)
	}
	s.logger.Debug("Recorded study session",
		zap.String("uid", uid),
		zap.Int("seconds", seconds),
		zap.Int("streak", stats.CurrentStreak),
	)
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProfileNotFound
	}
	return err
}
