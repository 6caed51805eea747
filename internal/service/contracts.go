package service

import (
	"context"
	"time"

	"nihongo/internal/ai"
	"nihongo/internal/models"
)

// UserStore persists user profiles
type UserStore interface {
	CreateUser(ctx context.Context, user *models.UserProfile) error
	GetUser(ctx context.Context, uid string) (*models.UserProfile, error)
	UpdateLogin(ctx context.Context, uid, displayName, email, photoURL string, at time.Time) error
	UpdatePersonalInfo(ctx context.Context, uid string, info models.PersonalInfo, at time.Time) error
	UpdateLearningStats(ctx context.Context, uid string, stats models.LearningStats, at time.Time) error
	UpdateSettings(ctx context.Context, uid string, settings models.Settings, at time.Time) error
}

// ExamStore persists completed exam attempts
type ExamStore interface {
	CreateResult(ctx context.Context, result *models.ExamResult) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ExamResult, error)
	ListAllByUser(ctx context.Context, userID string) ([]models.ExamResult, error)
}

// NotificationStore persists broadcasts and read receipts
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string, now time.Time, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string, now time.Time) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string, at time.Time) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// AIStore persists generated question sets and chat transcripts
type AIStore interface {
	CreateQuestionSet(ctx context.Context, set *models.QuestionSet) error
	GetQuestionSet(ctx context.Context, userID, id string) (*models.QuestionSet, error)
	ListQuestionSets(ctx context.Context, userID string) ([]models.QuestionSet, error)
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
	ClearMessages(ctx context.Context, userID string) error
}

// Assistant is the generative-language client
type Assistant interface {
	Enabled() bool
	Explain(ctx context.Context, req ai.ExplainRequest) (string, error)
	Chat(ctx context.Context, question string) (string, error)
	GenerateQuestions(ctx context.Context, lesson models.GrammarLesson) ([]models.ExamQuestion, error)
}

// Mailer sends transactional email
type Mailer interface {
	SendExamResultEmail(ctx context.Context, toEmail, toName string, result *models.ExamResult) error
}
