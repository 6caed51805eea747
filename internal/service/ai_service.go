package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/ai"
	"nihongo/internal/content"
	"nihongo/internal/models"
	"nihongo/internal/utils"
	"nihongo/internal/validation"
)

var (
	ErrNoLessons         = errors.New("select at least one grammar lesson")
	ErrQuestionSetAbsent = errors.New("question set not found")
)

const (
	// ChatHistoryLimit is how many transcript messages are returned
	ChatHistoryLimit = 200
	// MaxLessonsPerSet bounds one generation request
	MaxLessonsPerSet = 10
)

// GenerateRequest selects the lessons to generate questions for
type GenerateRequest struct {
	LessonIDs []string `json:"lessonIds"`
	Name      string   `json:"name"`
}

// ChatExchange is one question and the assistant's reply
type ChatExchange struct {
	Question models.ChatMessage `json:"question"`
	Answer   models.ChatMessage `json:"answer"`
}

// AIService wraps the assistant with persistence of its outputs
type AIService struct {
	client  Assistant
	catalog *content.Catalog
	store   AIStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewAIService creates a new AI service
func NewAIService(client Assistant, catalog *content.Catalog, store AIStore, logger *zap.Logger) *AIService {
	return &AIService{
		client:  client,
		catalog: catalog,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Explain asks the assistant why an answer is right or wrong
func (s *AIService) Explain(ctx context.Context, req ai.ExplainRequest) (string, error) {
	if err := validation.ValidateQuestion("question", req.Question); err != nil {
		return "", err
	}
	if !s.client.Enabled() {
		return "", ai.ErrNotConfigured
	}

	explanation, err := s.client.Explain(ctx, req)
	if err != nil {
		s.logger.Warn("AI explanation failed", zap.String("type", req.QuestionType), zap.Error(err))
		return "", err
	}
	return explanation, nil
}

// Generate creates questions for every selected lesson and saves them as one set
func (s *AIService) Generate(ctx context.Context, userID string, req GenerateRequest) (*models.QuestionSet, error) {
	if len(req.LessonIDs) == 0 {
		return nil, ErrNoLessons
	}
	if len(req.LessonIDs) > MaxLessonsPerSet {
		return nil, validation.ValidationError{Field: "lessonIds", Message: fmt.Sprintf("at most %d lessons", MaxLessonsPerSet)}
	}
	if !s.client.Enabled() {
		return nil, ai.ErrNotConfigured
	}

	lessons := make([]models.GrammarLesson, 0, len(req.LessonIDs))
	titles := make([]string, 0, len(req.LessonIDs))
	for _, id := range req.LessonIDs {
		lesson, err := s.catalog.Lesson(id)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, *lesson)
		titles = append(titles, lesson.Title)
	}

	var questions []models.ExamQuestion
	for _, lesson := range lessons {
		generated, err := s.client.GenerateQuestions(ctx, lesson)
		if err != nil {
			s.logger.Warn("Question generation failed", zap.String("lesson", lesson.ID), zap.Error(err))
			return nil, err
		}
		questions = append(questions, generated...)
	}
	for i := range questions {
		questions[i].ID = fmt.Sprintf("q%d", i+1)
	}

	code, err := utils.NewShortCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate set id: %w", err)
	}

	now := s.now()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Đề AI: " + strings.Join(titles, ", ")
	}
	set := &models.QuestionSet{
		ID:        code,
		UserID:    userID,
		Name:      name,
		Questions: questions,
		CreatedAt: now,
	}
	if err := s.store.CreateQuestionSet(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to save question set: %w", err)
	}

	s.logger.Info("Generated question set",
		zap.String("uid", userID),
		zap.String("setId", set.ID),
		zap.Int("lessons", len(lessons)),
		zap.Int("questions", len(questions)),
	)
	return set, nil
}

// QuestionSets lists the user's saved sets, newest first
func (s *AIService) QuestionSets(ctx context.Context, userID string) ([]models.QuestionSet, error) {
	sets, err := s.store.ListQuestionSets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []models.QuestionSet{}
	}
	return sets, nil
}

// QuestionSet returns one of the user's sets
func (s *AIService) QuestionSet(ctx context.Context, userID, id string) (*models.QuestionSet, error) {
	set, err := s.store.GetQuestionSet(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrQuestionSetAbsent
	}
	return set, nil
}

// Chat answers a free-form question and appends both turns to the transcript.
// Nothing is stored when the assistant fails.
func (s *AIService) Chat(ctx context.Context, userID, question string) (*ChatExchange, error) {
	if err := validation.ValidateQuestion("message", question); err != nil {
		return nil, err
	}
	if !s.client.Enabled() {
		return nil, ai.ErrNotConfigured
	}

	asked := s.now()
	reply, err := s.client.Chat(ctx, question)
	if err != nil {
		s.logger.Warn("AI chat failed", zap.String("uid", userID), zap.Error(err))
		return nil, err
	}

	exchange := &ChatExchange{
		Question: models.ChatMessage{UserID: userID, Role: models.ChatRoleUser, Content: strings.TrimSpace(question), CreatedAt: asked},
		Answer:   models.ChatMessage{UserID: userID, Role: models.ChatRoleModel, Content: reply, CreatedAt: s.now()},
	}
	if err := s.store.AppendMessage(ctx, &exchange.Question); err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	if err := s.store.AppendMessage(ctx, &exchange.Answer); err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	return exchange, nil
}

// ChatHistory returns the user's transcript in chronological order
func (s *AIService) ChatHistory(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	messages, err := s.store.ListMessages(ctx, userID, ChatHistoryLimit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

// ClearChat deletes the user's transcript
func (s *AIService) ClearChat(ctx context.Context, userID string) error {
	if err := s.store.ClearMessages(ctx, userID); err != nil {
		return err
	}
	s.logger.Debug("Cleared chat transcript", zap.String("uid", userID))
	return nil
}
