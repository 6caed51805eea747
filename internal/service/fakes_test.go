package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"nihongo/internal/ai"
	"nihongo/internal/models"
	"nihongo/internal/repository"
)

var errStoreDown = errors.New("store unavailable")

type fakeUsers struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{profiles: make(map[string]*models.UserProfile)}
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.profiles[user.UID] = &cp
	return nil
}

func (f *fakeUsers) GetUser(_ context.Context, uid string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[uid]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) update(uid string, fn func(p *models.UserProfile)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[uid]
	if !ok {
		return repository.ErrNotFound
	}
	fn(p)
	return nil
}

func (f *fakeUsers) UpdateLogin(_ context.Context, uid, displayName, email, photoURL string, at time.Time) error {
	return f.update(uid, func(p *models.UserProfile) {
		p.DisplayName, p.Email, p.PhotoURL, p.LastLoginAt = displayName, email, photoURL, at
	})
}

func (f *fakeUsers) UpdatePersonalInfo(_ context.Context, uid string, info models.PersonalInfo, _ time.Time) error {
	return f.update(uid, func(p *models.UserProfile) { p.PersonalInfo = info })
}

func (f *fakeUsers) UpdateLearningStats(_ context.Context, uid string, stats models.LearningStats, _ time.Time) error {
	return f.update(uid, func(p *models.UserProfile) { p.LearningStats = stats })
}

func (f *fakeUsers) UpdateSettings(_ context.Context, uid string, settings models.Settings, _ time.Time) error {
	return f.update(uid, func(p *models.UserProfile) { p.Settings = settings })
}

type fakeExams struct {
	mu      sync.Mutex
	results []models.ExamResult
	failErr error
	delay   time.Duration
}

func (f *fakeExams) CreateResult(_ context.Context, result *models.ExamResult) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.results = append(f.results, *result)
	return nil
}

func (f *fakeExams) ListAllByUser(_ context.Context, userID string) ([]models.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExamResult
	for _, r := range f.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (f *fakeExams) ListByUser(ctx context.Context, userID string, limit int) ([]models.ExamResult, error) {
	all, _ := f.ListAllByUser(ctx, userID)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeExams) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type fakeNotifications struct {
	items   map[string]*models.Notification
	read    map[string]bool
	created int
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{items: make(map[string]*models.Notification), read: make(map[string]bool)}
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	f.created++
	cp := *n
	f.items[n.ID] = &cp
	return nil
}

func (f *fakeNotifications) GetNotification(_ context.Context, id string) (*models.Notification, error) {
	n, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return n, nil
}

func (f *fakeNotifications) ListForUser(_ context.Context, userID string, now time.Time, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.items {
		if n.IsActive && !n.IsExpired(now) {
			cp := *n
			cp.IsRead = f.read[userID+"/"+n.ID]
			out = append(out, cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifications) CountUnread(ctx context.Context, userID string, now time.Time) (int, error) {
	list, _ := f.ListForUser(ctx, userID, now, len(f.items))
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userID, notificationID string, _ time.Time) error {
	f.read[userID+"/"+notificationID] = true
	return nil
}

func (f *fakeNotifications) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, n := range f.items {
		if n.IsActive && n.IsExpired(now) {
			n.IsActive = false
			count++
		}
	}
	return count, nil
}

type fakeAIStore struct {
	mu       sync.Mutex
	sets     map[string]*models.QuestionSet
	messages []models.ChatMessage
}

func newFakeAIStore() *fakeAIStore {
	return &fakeAIStore{sets: make(map[string]*models.QuestionSet)}
}

func (f *fakeAIStore) CreateQuestionSet(_ context.Context, set *models.QuestionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *set
	f.sets[set.ID] = &cp
	return nil
}

func (f *fakeAIStore) GetQuestionSet(_ context.Context, userID, id string) (*models.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[id]
	if !ok || set.UserID != userID {
		return nil, nil
	}
	return set, nil
}

func (f *fakeAIStore) ListQuestionSets(_ context.Context, userID string) ([]models.QuestionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QuestionSet
	for _, set := range f.sets {
		if set.UserID == userID {
			out = append(out, *set)
		}
	}
	return out, nil
}

func (f *fakeAIStore) AppendMessage(_ context.Context, msg *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = int64(len(f.messages) + 1)
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeAIStore) ListMessages(_ context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeAIStore) ClearMessages(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.messages[:0]
	for _, m := range f.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

type fakeAssistant struct {
	enabled bool
	err     error
	calls   int
}

func (f *fakeAssistant) Enabled() bool { return f.enabled }

func (f *fakeAssistant) Explain(_ context.Context, req ai.ExplainRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "**Giải thích** cho " + req.Question, nil
}

func (f *fakeAssistant) Chat(_ context.Context, question string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "Trả lời: " + question, nil
}

func (f *fakeAssistant) GenerateQuestions(_ context.Context, lesson models.GrammarLesson) ([]models.ExamQuestion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ExamQuestion
	for i := 0; i < 5; i++ {
		out = append(out, models.ExamQuestion{
			ID:       "gen",
			Question: lesson.Title + " câu hỏi",
			Options: models.Options{
				{Key: "A", Text: "は"}, {Key: "B", Text: "が"}, {Key: "C", Text: "を"}, {Key: "D", Text: "に"},
			},
			CorrectAnswer: "A",
			LessonID:      lesson.ID,
			LessonTitle:   lesson.Title,
		})
	}
	return out, nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendExamResultEmail(_ context.Context, toEmail, _ string, _ *models.ExamResult) error {
	f.sent = append(f.sent, toEmail)
	return nil
}
