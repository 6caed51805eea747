package practice

import (
	"errors"
	"math/rand"
	"sync"

	"nihongo/internal/models"
)

var (
	ErrEmptyDeck     = errors.New("deck has no cards")
	ErrUnknownAction = errors.New("unknown practice action")
)

// Action is a learner command on a practice deck
type Action string

const (
	ActionNext    Action = "next"
	ActionPrev    Action = "prev"
	ActionFlip    Action = "flip"
	ActionKnown   Action = "known"
	ActionUnknown Action = "unknown"
)

// Session walks through a flashcard deck. It is safe for concurrent use.
type Session struct {
	ID     string
	UserID string
	Domain models.Domain
	Level  models.Level

	mu      sync.Mutex
	cards   []models.Flashcard
	cursor  int
	flipped bool
	known   map[string]bool
}

// NewSession copies the deck's cards, shuffling them when rng is not nil
func NewSession(id, userID string, domain models.Domain, deck *models.Deck, rng *rand.Rand) (*Session, error) {
	if deck == nil || len(deck.Cards) == 0 {
		return nil, ErrEmptyDeck
	}

	cards := make([]models.Flashcard, len(deck.Cards))
	copy(cards, deck.Cards)
	if rng != nil {
		rng.Shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
	}

	return &Session{
		ID:     id,
		UserID: userID,
		Domain: domain,
		Level:  deck.Level,
		cards:  cards,
		known:  make(map[string]bool),
	}, nil
}

// Apply performs an action and returns the resulting view
func (s *Session) Apply(action Action) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case ActionNext:
		if s.cursor < len(s.cards)-1 {
			s.cursor++
		}
		s.flipped = false
	case ActionPrev:
		if s.cursor > 0 {
			s.cursor--
		}
		s.flipped = false
	case ActionFlip:
		s.flipped = !s.flipped
	case ActionKnown:
		s.known[s.cards[s.cursor].ID] = true
	case ActionUnknown:
		delete(s.known, s.cards[s.cursor].ID)
	default:
		return View{}, ErrUnknownAction
	}
	return s.viewLocked(), nil
}

// Progress summarizes how much of the deck is known
type Progress struct {
	Total   int     `json:"total"`
	Known   int     `json:"known"`
	Percent float64 `json:"percent"`
}

// View is what the learner sees of the current card. The back of the card
// is only included once it has been flipped.
type View struct {
	ID       string           `json:"id"`
	Domain   models.Domain    `json:"domain"`
	Position int              `json:"position"`
	Card     models.Flashcard `json:"card"`
	Flipped  bool             `json:"flipped"`
	Known    bool             `json:"known"`
	Progress Progress         `json:"progress"`
}

// View returns the current card
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	card := s.cards[s.cursor]
	if !s.flipped {
		card = models.Flashcard{ID: card.ID, Front: card.Front}
	}
	return View{
		ID:       s.ID,
		Domain:   s.Domain,
		Position: s.cursor,
		Card:     card,
		Flipped:  s.flipped,
		Known:    s.known[s.cards[s.cursor].ID],
		Progress: Progress{
			Total:   len(s.cards),
			Known:   len(s.known),
			Percent: models.Percentage(len(s.known), len(s.cards)),
		},
	}
}
