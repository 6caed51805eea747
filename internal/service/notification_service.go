package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/models"
	"nihongo/internal/utils"
	"nihongo/internal/validation"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationListLimit caps how many broadcasts a user sees
const NotificationListLimit = 50

// CreateNotificationRequest is the admin input for a broadcast
type CreateNotificationRequest struct {
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// UnreadCount is the badge value of a user
type UnreadCount struct {
	Count   int    `json:"count"`
	Display string `json:"display"`
}

// NotificationService manages broadcasts and read receipts
type NotificationService struct {
	store  NotificationStore
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(store NotificationStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger, now: time.Now}
}

// Create validates and stores a broadcast to all users
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	now := s.now()
	n := &models.Notification{
		ID:          utils.NewID(),
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		Priority:    req.Priority,
		TargetUsers: models.TargetAllUsers,
		IsActive:    true,
		CreatedAt:   now,
		ExpiresAt:   req.ExpiresAt,
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}
	if err := validation.ValidateNotification(*n, now); err != nil {
		return nil, err
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.logger.Info("Created notification",
		zap.String("id", n.ID),
		zap.String("type", n.Type),
		zap.String("priority", n.Priority),
	)
	return n, nil
}

// AnnounceDeployment broadcasts that a new version is live
func (s *NotificationService) AnnounceDeployment(ctx context.Context) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationRequest{
		Title:    "🚀 Cập nhật mới",
		Message:  "Ứng dụng đã được cập nhật với các tính năng mới! Hãy khám phá ngay.",
		Type:     models.NotificationSuccess,
		Priority: models.PriorityNormal,
	})
}

// List returns the active broadcasts with the user's read state, newest first
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.store.ListForUser(ctx, userID, s.now(), NotificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead records that the user has read a broadcast
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	return s.store.MarkRead(ctx, userID, id, s.now())
}

// UnreadCount returns how many active broadcasts the user has not read
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (UnreadCount, error) {
	count, err := s.store.CountUnread(ctx, userID, s.now())
	if err != nil {
		return UnreadCount{}, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return UnreadCount{Count: count, Display: models.FormatUnreadCount(count)}, nil
}

// SweepExpired deactivates broadcasts past their expiry
func (s *NotificationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.DeactivateExpired(ctx, s.now())
}
