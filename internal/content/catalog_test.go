package content

import (
	"errors"
	"testing"
	"testing/fstest"

	"nihongo/internal/models"
)

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return c
}

func TestLoadBundledContent(t *testing.T) {
	c := loadCatalog(t)

	tests := []struct {
		domain  models.Domain
		minSize int
	}{
		{models.DomainHiragana, 46},
		{models.DomainKatakana, 46},
		{models.DomainKanji, 10},
		{models.DomainVocabulary, 10},
		{models.DomainGrammar, 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			deck, err := c.Deck(tt.domain, models.LevelN5)
			if err != nil {
				t.Fatalf("Deck(%s) failed: %v", tt.domain, err)
			}
			if len(deck.Cards) < tt.minSize {
				t.Errorf("Deck(%s) has %d cards, want at least %d", tt.domain, len(deck.Cards), tt.minSize)
			}
			seen := make(map[string]bool)
			for _, card := range deck.Cards {
				if card.ID == "" || card.Front == "" {
					t.Errorf("card missing id or front: %+v", card)
				}
				if seen[card.ID] {
					t.Errorf("duplicate card id %s", card.ID)
				}
				seen[card.ID] = true
			}
		})
	}
}

func TestLevels(t *testing.T) {
	c := loadCatalog(t)
	levels := c.Levels()
	if len(levels) != 5 {
		t.Fatalf("Levels() returned %d entries, want 5", len(levels))
	}
	for _, l := range levels {
		want := l.Level == models.LevelN5
		if l.Available != want {
			t.Errorf("level %s available = %v, want %v", l.Level, l.Available, want)
		}
	}
}

func TestUnavailableLevelAndUnknownDomain(t *testing.T) {
	c := loadCatalog(t)

	if _, err := c.Deck(models.DomainKanji, models.LevelN3); !errors.Is(err, ErrLevelUnavailable) {
		t.Errorf("expected ErrLevelUnavailable, got %v", err)
	}
	if _, err := c.Modes(models.LevelN1); !errors.Is(err, ErrLevelUnavailable) {
		t.Errorf("expected ErrLevelUnavailable for modes, got %v", err)
	}
	if _, err := c.Deck(models.Domain("romaji"), models.LevelN5); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestExamsAndLessons(t *testing.T) {
	c := loadCatalog(t)

	exam, err := c.SampleExam(models.LevelN5)
	if err != nil {
		t.Fatalf("SampleExam failed: %v", err)
	}
	for _, q := range exam.AllQuestions() {
		if _, ok := q.Options.Text(q.CorrectAnswer); !ok {
			t.Errorf("question %s answer %q does not match an option", q.ID, q.CorrectAnswer)
		}
	}

	listening, err := c.Listening(models.LevelN5)
	if err != nil {
		t.Fatalf("Listening failed: %v", err)
	}
	if listening.TimeLimitMinutes != 20 {
		t.Errorf("listening time limit = %d, want 20", listening.TimeLimitMinutes)
	}
	first := listening.AllQuestions()[0]
	if q, ok := c.ListeningQuestion(first.Audio); !ok || q.Script == "" {
		t.Errorf("ListeningQuestion(%q) did not return a scripted question", first.Audio)
	}
	if scripts := c.ListeningScripts(); scripts[first.Audio] == "" {
		t.Errorf("ListeningScripts() has no script for %q", first.Audio)
	}

	lesson, err := c.Lesson("bai-1")
	if err != nil {
		t.Fatalf("Lesson(bai-1) failed: %v", err)
	}
	if len(lesson.Structures) == 0 {
		t.Error("lesson bai-1 has no structures")
	}
	if _, err := c.Lesson("missing"); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestLoadFSMissingFile(t *testing.T) {
	fsys := fstest.MapFS{
		"hiragana.json": {Data: []byte(`{"cards":[{"front":"あ","pronunciation":"a"}]}`)},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Error("expected error when content files are missing")
	}
}

func TestLoadFSEmptyDeck(t *testing.T) {
	empty := []byte(`{"level":"N5","cards":[]}`)
	fsys := fstest.MapFS{
		"hiragana.json":   {Data: empty},
		"katakana.json":   {Data: empty},
		"kanji.json":      {Data: empty},
		"vocabulary.json": {Data: empty},
		"grammar.json":    {Data: []byte(`{"lessons":[{"id":"x","title":"x","structures":[{"pattern":"p"}]}]}`)},
		"listening.json":  {Data: []byte(`{"level":"N5","sections":[]}`)},
		"exam.json":       {Data: []byte(`{"level":"N5","sections":[]}`)},
	}
	c, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}
	if _, err := c.Deck(models.DomainHiragana, models.LevelN5); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
	if _, err := c.Listening(models.LevelN5); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool for listening, got %v", err)
	}
	deck, err := c.Deck(models.DomainGrammar, models.LevelN5)
	if err != nil {
		t.Fatalf("grammar deck failed: %v", err)
	}
	if deck.Cards[0].Front != "p" {
		t.Errorf("grammar card without example should show the pattern, got %q", deck.Cards[0].Front)
	}
	if deck.Cards[0].Example != "" {
		t.Errorf("grammar card example = %q, want empty", deck.Cards[0].Example)
	}
}
