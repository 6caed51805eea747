package service

import (
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/content"
	"nihongo/internal/models"
	"nihongo/internal/practice"
	"nihongo/internal/utils"
)

var ErrPracticeNotFound = errors.New("practice session not found")

// StartPracticeRequest selects the deck to practice
type StartPracticeRequest struct {
	Domain  models.Domain `json:"domain"`
	Level   models.Level  `json:"level"`
	Shuffle bool          `json:"shuffle"`
}

// PracticeService handles flashcard practice sessions held in memory
type PracticeService struct {
	catalog  *content.Catalog
	sessions *utils.TTLStore[*practice.Session]
	logger   *zap.Logger
}

// NewPracticeService creates a new practice service
func NewPracticeService(catalog *content.Catalog, ttl time.Duration, logger *zap.Logger) *PracticeService {
	return &PracticeService{
		catalog:  catalog,
		sessions: utils.NewTTLStore[*practice.Session](ttl),
		logger:   logger,
	}
}

// Start builds a deck for the user and returns its first card
func (s *PracticeService) Start(userID string, req StartPracticeRequest) (practice.View, error) {
	if req.Level == "" {
		req.Level = models.LevelN5
	}
	deck, err := s.catalog.Deck(req.Domain, req.Level)
	if err != nil {
		return practice.View{}, err
	}

	var rng *rand.Rand
	if req.Shuffle {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	session, err := practice.NewSession(utils.NewID(), userID, req.Domain, deck, rng)
	if err != nil {
		return practice.View{}, err
	}
	s.sessions.Put(session.ID, userID, session)

	s.logger.Debug("Started practice",
		zap.String("uid", userID),
		zap.String("practiceId", session.ID),
		zap.String("domain", string(req.Domain)),
		zap.Int("cards", len(deck.Cards)),
	)
	return session.View(), nil
}

// View returns the current card of a session
func (s *PracticeService) View(userID, id string) (practice.View, error) {
	session, ok := s.sessions.Get(id, userID)
	if !ok {
		return practice.View{}, ErrPracticeNotFound
	}
	return session.View(), nil
}

// Apply performs a learner action on a session
func (s *PracticeService) Apply(userID, id string, action practice.Action) (practice.View, error) {
	session, ok := s.sessions.Get(id, userID)
	if !ok {
		return practice.View{}, ErrPracticeNotFound
	}
	return session.Apply(action)
}

// Sweep evicts abandoned sessions
func (s *PracticeService) Sweep() int {
	return s.sessions.Sweep()
}
