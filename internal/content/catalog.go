package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"nihongo/internal/models"
)

//go:embed data/*.json
var bundled embed.FS

var (
	ErrUnknownDomain    = errors.New("unknown content domain")
	ErrLevelUnavailable = errors.New("level has no content yet")
	ErrEmptyPool        = errors.New("content pool is empty")
	ErrLessonNotFound   = errors.New("grammar lesson not found")
)

// LevelInfo describes one JLPT tier in the level picker
type LevelInfo struct {
	Level     models.Level `json:"level"`
	Name      string       `json:"name"`
	Available bool         `json:"available"`
}

// Mode is a top-level study mode (test or practice) and the domains it offers
type Mode struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Domains []models.Domain `json:"domains"`
}

// Catalog is the immutable set of study content bundled with the binary
type Catalog struct {
	decks     map[models.Level]map[models.Domain]*models.Deck
	lessons   map[models.Level][]models.GrammarLesson
	listening map[models.Level]*models.Exam
	exams     map[models.Level]*models.Exam
}

type grammarFile struct {
	Lessons []models.GrammarLesson `json:"lessons"`
}

// Load reads the bundled content
func Load() (*Catalog, error) {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS reads content files from fsys. Every file is required.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{
		decks:     make(map[models.Level]map[models.Domain]*models.Deck),
		lessons:   make(map[models.Level][]models.GrammarLesson),
		listening: make(map[models.Level]*models.Exam),
		exams:     make(map[models.Level]*models.Exam),
	}

	for _, domain := range []models.Domain{models.DomainHiragana, models.DomainKatakana, models.DomainKanji, models.DomainVocabulary} {
		var deck models.Deck
		if err := readJSON(fsys, string(domain)+".json", &deck); err != nil {
			return nil, err
		}
		if deck.Level == "" {
			deck.Level = models.LevelN5
		}
		for i := range deck.Cards {
			if deck.Cards[i].ID == "" {
				deck.Cards[i].ID = fmt.Sprintf("%s-%d", domain, i+1)
			}
		}
		if c.decks[deck.Level] == nil {
			c.decks[deck.Level] = make(map[models.Domain]*models.Deck)
		}
		c.decks[deck.Level][domain] = &deck
	}

	var grammar grammarFile
	if err := readJSON(fsys, "grammar.json", &grammar); err != nil {
		return nil, err
	}
	for _, lesson := range grammar.Lessons {
		if lesson.Level == "" {
			lesson.Level = models.LevelN5
		}
		c.lessons[lesson.Level] = append(c.lessons[lesson.Level], lesson)
	}

	var listening models.Exam
	if err := readJSON(fsys, "listening.json", &listening); err != nil {
		return nil, err
	}
	c.listening[listening.Level] = &listening

	var exam models.Exam
	if err := readJSON(fsys, "exam.json", &exam); err != nil {
		return nil, err
	}
	c.exams[exam.Level] = &exam

	return c, nil
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Levels lists every JLPT tier, marking those with bundled content
func (c *Catalog) Levels() []LevelInfo {
	levels := make([]LevelInfo, 0, len(models.AllLevels))
	for _, l := range models.AllLevels {
		levels = append(levels, LevelInfo{
			Level:     l,
			Name:      "JLPT " + string(l),
			Available: c.isAvailable(l),
		})
	}
	return levels
}

func (c *Catalog) isAvailable(level models.Level) bool {
	return len(c.decks[level]) > 0 || len(c.lessons[level]) > 0
}

// Modes returns the study modes offered for a level
func (c *Catalog) Modes(level models.Level) ([]Mode, error) {
	if !c.isAvailable(level) {
		return nil, ErrLevelUnavailable
	}
	return []Mode{
		{
			ID:   "test",
			Name: "Làm Test",
			Domains: []models.Domain{
				models.DomainHiragana, models.DomainKatakana, models.DomainKanji,
				models.DomainGrammar, models.DomainExam, models.DomainVocabulary, models.DomainListening,
			},
		},
		{
			ID:   "practice",
			Name: "Luyện tập",
			Domains: []models.Domain{
				models.DomainHiragana, models.DomainKatakana, models.DomainKanji,
				models.DomainVocabulary, models.DomainGrammar,
			},
		},
	}, nil
}

// Deck returns the flashcard deck of a card-based domain
func (c *Catalog) Deck(domain models.Domain, level models.Level) (*models.Deck, error) {
	switch domain {
	case models.DomainHiragana, models.DomainKatakana, models.DomainKanji, models.DomainVocabulary:
	case models.DomainGrammar:
		return c.grammarDeck(level)
	default:
		return nil, ErrUnknownDomain
	}
	if !c.isAvailable(level) {
		return nil, ErrLevelUnavailable
	}
	deck, ok := c.decks[level][domain]
	if !ok || len(deck.Cards) == 0 {
		return nil, ErrEmptyPool
	}
	return deck, nil
}

// grammarDeck presents every grammar structure as a flashcard: the example
// sentence (or the pattern itself) on the front, the pattern as the answer.
func (c *Catalog) grammarDeck(level models.Level) (*models.Deck, error) {
	lessons, err := c.GrammarLessons(level)
	if err != nil {
		return nil, err
	}
	deck := &models.Deck{Name: "Ngữ pháp " + string(level), Level: level}
	for _, lesson := range lessons {
		for i, s := range lesson.Structures {
			front := s.Example
			if front == "" {
				front = s.Pattern
			}
			deck.Cards = append(deck.Cards, models.Flashcard{
				ID:            fmt.Sprintf("%s-%d", lesson.ID, i),
				Front:         front,
				Reading:       s.Pattern,
				Pronunciation: s.Pattern,
				Meaning:       s.Meaning,
				Lesson:        lesson.Title,
			})
		}
	}
	if len(deck.Cards) == 0 {
		return nil, ErrEmptyPool
	}
	return deck, nil
}

// GrammarLessons returns the lessons of a level in bundled order
func (c *Catalog) GrammarLessons(level models.Level) ([]models.GrammarLesson, error) {
	if !c.isAvailable(level) {
		return nil, ErrLevelUnavailable
	}
	lessons := c.lessons[level]
	if len(lessons) == 0 {
		return nil, ErrEmptyPool
	}
	return lessons, nil
}

// Lesson finds a grammar lesson by id across all levels
func (c *Catalog) Lesson(id string) (*models.GrammarLesson, error) {
	for _, level := range models.AllLevels {
		for i := range c.lessons[level] {
			if c.lessons[level][i].ID == id {
				return &c.lessons[level][i], nil
			}
		}
	}
	return nil, ErrLessonNotFound
}

// Listening returns the listening test of a level
func (c *Catalog) Listening(level models.Level) (*models.Exam, error) {
	if !c.isAvailable(level) {
		return nil, ErrLevelUnavailable
	}
	exam, ok := c.listening[level]
	if !ok || len(exam.AllQuestions()) == 0 {
		return nil, ErrEmptyPool
	}
	return exam, nil
}

// SampleExam returns the bundled sample exam of a level
func (c *Catalog) SampleExam(level models.Level) (*models.Exam, error) {
	if !c.isAvailable(level) {
		return nil, ErrLevelUnavailable
	}
	exam, ok := c.exams[level]
	if !ok || len(exam.AllQuestions()) == 0 {
		return nil, ErrEmptyPool
	}
	return exam, nil
}

// ListeningQuestion finds the listening question that plays audioFile
func (c *Catalog) ListeningQuestion(audioFile string) (*models.ExamQuestion, bool) {
	for _, exam := range c.listening {
		for _, section := range exam.Sections {
			for i := range section.Questions {
				if section.Questions[i].Audio == audioFile {
					return &section.Questions[i], true
				}
			}
		}
	}
	return nil, false
}

// ListeningScripts maps every listening audio file to the script it reads
func (c *Catalog) ListeningScripts() map[string]string {
	scripts := make(map[string]string)
	for _, exam := range c.listening {
		for _, section := range exam.Sections {
			for _, q := range section.Questions {
				if q.Audio != "" && q.Script != "" {
					scripts[q.Audio] = q.Script
				}
			}
		}
	}
	return scripts
}
