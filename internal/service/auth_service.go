package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/models"
	"nihongo/internal/security"
	"nihongo/internal/validation"
)

var (
	ErrUnauthorized    = errors.New("not signed in")
	ErrInvalidIdentity = errors.New("sign-in provider returned an incomplete identity")
)

// Identity is the account information returned by the sign-in provider
type Identity struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// AuthService handles sign-in and session tokens
type AuthService struct {
	users   UserStore
	tokens  *security.TokenIssuer
	isAdmin func(email string) bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthService creates a new auth service. isAdmin decides which emails get
// administrator rights.
func NewAuthService(users UserStore, tokens *security.TokenIssuer, isAdmin func(email string) bool, logger *zap.Logger) *AuthService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		isAdmin: isAdmin,
		logger:  logger,
		now:     time.Now,
	}
}

// SignIn creates the profile on first sign-in or refreshes it afterwards, and
// issues a session token
func (s *AuthService) SignIn(ctx context.Context, id Identity) (*models.UserProfile, string, time.Time, error) {
	if strings.TrimSpace(id.ID) == "" {
		return nil, "", time.Time{}, ErrInvalidIdentity
	}
	if err := validation.ValidateEmail(id.Email); err != nil {
		return nil, "", time.Time{}, ErrInvalidIdentity
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}

	now := s.now()
	profile, err := s.users.GetUser(ctx, id.ID)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile == nil {
		profile = &models.UserProfile{
			UID:           id.ID,
			DisplayName:   name,
			Email:         id.Email,
			PhotoURL:      id.Picture,
			PersonalInfo:  models.DefaultPersonalInfo(name, ""),
			LearningStats: models.DefaultLearningStats(),
			Settings:      models.DefaultSettings(),
			CreatedAt:     now,
			LastLoginAt:   now,
			UpdatedAt:     now,
		}
		if err := s.users.CreateUser(ctx, profile); err != nil {
			return nil, "", time.Time{}, fmt.Errorf("failed to create profile: %w", err)
		}
		s.logger.Info("Created user profile", zap.String("uid", id.ID), zap.String("email", id.Email))
	} else {
		if err := s.users.UpdateLogin(ctx, id.ID, name, id.Email, id.Picture, now); err != nil {
			return nil, "", time.Time{}, fmt.Errorf("failed to update profile: %w", err)
		}
		profile.DisplayName = name
		profile.Email = id.Email
		profile.PhotoURL = id.Picture
		profile.LastLoginAt = now
		profile.UpdatedAt = now
	}
	profile.IsAdmin = s.isAdmin(id.Email)

	token, expiresAt, err := s.tokens.Issue(models.Session{
		UserID:  profile.UID,
		Email:   profile.Email,
		Name:    profile.DisplayName,
		IsAdmin: profile.IsAdmin,
	})
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return profile, token, expiresAt, nil
}

// Authenticate resolves a session token
func (s *AuthService) Authenticate(token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	session, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return session, nil
}
