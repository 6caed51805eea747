package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nihongo/internal/models"
)

func hiraganaItems(n int) []Item {
	glyphs := []string{"あ", "い", "う", "え", "お", "か", "き", "く", "け", "こ", "さ", "し"}
	romaji := []string{"a", "i", "u", "e", "o", "ka", "ki", "ku", "ke", "ko", "sa", "shi"}
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, Item{Prompt: glyphs[i], Answer: romaji[i]})
	}
	return items
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newStartedSession(t *testing.T, b Builder, opts Options) *Session {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(42))
	}
	s := NewSession(b, opts)
	if s.State() != StateLoading {
		t.Fatalf("new session state = %s, want loading", s.State())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	return s
}

func correctKey(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.current].CorrectKey
}

func wrongKey(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.questions[s.current]
	for _, c := range q.Choices {
		if c.Key != q.CorrectKey {
			return c.Key
		}
	}
	return ""
}

func TestPoolBuilderChoices(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		questions, err := PoolBuilder{Items: hiraganaItems(12), Limit: 10}.Build(rng)
		if err != nil {
			t.Fatalf("Build() failed: %v", err)
		}
		if len(questions) != 10 {
			t.Fatalf("Build() returned %d questions, want 10", len(questions))
		}

		prompts := make(map[string]bool)
		for _, q := range questions {
			if prompts[q.Prompt] {
				t.Errorf("prompt %s repeated within a session", q.Prompt)
			}
			prompts[q.Prompt] = true

			if len(q.Choices) != ChoicesPerQuestion {
				t.Fatalf("question %s has %d choices, want 4", q.Prompt, len(q.Choices))
			}
			texts := make(map[string]bool)
			keys := make(map[string]bool)
			matches := 0
			for _, c := range q.Choices {
				if texts[c.Text] || keys[c.Key] {
					t.Errorf("duplicate choice %+v in %s", c, q.Prompt)
				}
				texts[c.Text] = true
				keys[c.Key] = true
				if c.Key == q.CorrectKey {
					matches++
				}
			}
			if matches != 1 {
				t.Errorf("question %s has %d correct choices, want 1", q.Prompt, matches)
			}
		}
	}
}

func TestPoolBuilderSmallPool(t *testing.T) {
	items := []Item{
		{Prompt: "は", Answer: "ha"},
		{Prompt: "ハ", Answer: "ha"},
		{Prompt: "ひ", Answer: "hi"},
	}
	questions, err := PoolBuilder{Items: items}.Build(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	for _, q := range questions {
		if len(q.Choices) != 2 {
			t.Errorf("question %s has %d choices, want 2 distinct values", q.Prompt, len(q.Choices))
		}
		if q.CorrectText() == "" {
			t.Errorf("question %s lost its correct answer", q.Prompt)
		}
	}

	if _, err := (PoolBuilder{}).Build(rand.New(rand.NewSource(1))); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("empty pool error = %v, want ErrEmptyPool", err)
	}
}

func TestTenHiraganaAllCorrect(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(10), Limit: 10}, Options{ID: "q1", Domain: models.DomainHiragana})

	for i := 0; i < 10; i++ {
		fb, err := s.Answer(correctKey(s))
		if err != nil {
			t.Fatalf("Answer() #%d failed: %v", i, err)
		}
		if !fb.Correct || fb.Score != i+1 {
			t.Fatalf("answer #%d feedback = %+v", i, fb)
		}
		if err := s.Next(); err != nil {
			t.Fatalf("Next() #%d failed: %v", i, err)
		}
	}

	if s.State() != StateReviewing {
		t.Fatalf("state after last question = %s, want reviewing", s.State())
	}

	result, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if result.Score != 10 || result.Total != 10 || result.Percentage != 100.0 || result.Grade != models.GradeA {
		t.Errorf("result = %+v, want 10/10 100.0 A", result)
	}
}

func TestAnswerLocksQuestion(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(6)}, Options{})

	if _, err := s.Answer("Z"); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("unknown choice error = %v, want ErrInvalidChoice", err)
	}

	fb, err := s.Answer(correctKey(s))
	if err != nil || !fb.Correct || fb.Score != 1 {
		t.Fatalf("first answer = %+v, %v", fb, err)
	}
	if _, err := s.Answer(correctKey(s)); !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("second answer error = %v, want ErrAlreadyAnswered", err)
	}
	if view := s.Snapshot(); view.Score != 1 || !view.Question.Answered {
		t.Errorf("snapshot after lock = %+v", view)
	}
}

func TestNextRequiresAnswer(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(5)}, Options{})
	if err := s.Next(); !errors.Is(err, ErrNotAnswered) {
		t.Errorf("Next() before answering = %v, want ErrNotAnswered", err)
	}

	exam := newStartedSession(t, PoolBuilder{Items: hiraganaItems(5)}, Options{AllowSkip: true})
	if err := exam.Next(); err != nil {
		t.Errorf("Next() on skippable exam failed: %v", err)
	}
}

func TestScoreAndPercentage(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(6)}, Options{})
	pattern := []bool{true, false, true, false, false, true}

	for i, right := range pattern {
		key := wrongKey(s)
		if right {
			key = correctKey(s)
		}
		if _, err := s.Answer(key); err != nil {
			t.Fatalf("Answer() #%d failed: %v", i, err)
		}
		if err := s.Next(); err != nil {
			t.Fatalf("Next() #%d failed: %v", i, err)
		}
	}

	result, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if result.Score != 3 || result.Percentage != 50.0 || result.Grade != models.GradeC {
		t.Errorf("result = %+v, want 3, 50.0, C", result)
	}
	if len(result.Answers) != 6 {
		t.Errorf("answers recorded = %d, want 6", len(result.Answers))
	}
}

func TestStateMachine(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(4)}, Options{})

	if _, err := s.Results(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Results() while answering = %v, want ErrInvalidTransition", err)
	}
	if err := s.Retake(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Retake() while answering = %v, want ErrInvalidTransition", err)
	}
	if err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Start() twice = %v, want ErrInvalidTransition", err)
	}

	if err := s.Flag(2); err != nil {
		t.Fatalf("Flag(2) failed: %v", err)
	}
	if s.State() != StateFlagged {
		t.Errorf("state after flag = %s, want flagged", s.State())
	}
	if err := s.Flag(9); !errors.Is(err, ErrQuestionIndex) {
		t.Errorf("Flag(9) = %v, want ErrQuestionIndex", err)
	}
	if err := s.Unflag(2); err != nil {
		t.Fatalf("Unflag(2) failed: %v", err)
	}
	if s.State() != StateAnswering {
		t.Errorf("state after unflag = %s, want answering", s.State())
	}
	_ = s.Flag(1)

	if _, err := s.Submit(); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if s.State() != StateSubmitted {
		t.Errorf("state = %s, want submitted", s.State())
	}
	if _, err := s.Answer("A"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Answer() after submit = %v, want ErrInvalidTransition", err)
	}
	if _, err := s.Submit(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Submit() twice = %v, want ErrInvalidTransition", err)
	}

	result, err := s.Results()
	if err != nil {
		t.Fatalf("Results() failed: %v", err)
	}
	if fmt.Sprint(result.Flagged) != "[1]" {
		t.Errorf("flagged = %v, want [1]", result.Flagged)
	}
	if s.State() != StateResultsDisplayed {
		t.Errorf("state = %s, want results", s.State())
	}

	if !s.BeginSave() {
		t.Fatal("BeginSave() refused the first claim")
	}
	s.EndSave(true)
	if err := s.Retake(); err != nil {
		t.Fatalf("Retake() failed: %v", err)
	}
	view := s.Snapshot()
	if view.State != StateAnswering || view.Score != 0 || view.Answered != 0 || view.Saved || view.Result != nil {
		t.Errorf("snapshot after retake = %+v", view)
	}
}

func TestReviewingGoto(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(2)}, Options{})
	if err := s.Goto(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Goto() while answering = %v, want ErrInvalidTransition", err)
	}
	for i := 0; i < 2; i++ {
		_, _ = s.Answer(correctKey(s))
		_ = s.Next()
	}
	if err := s.Goto(0); err != nil {
		t.Errorf("Goto(0) while reviewing failed: %v", err)
	}
	if err := s.Flag(0); err != nil {
		t.Errorf("Flag() while reviewing failed: %v", err)
	}
	if s.State() != StateReviewing {
		t.Errorf("flagging while reviewing changed state to %s", s.State())
	}
}

func TestDeadlineAutoSubmits(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(5)}, Options{
		TimeLimit: 20 * time.Minute,
		Now:       clock.now,
	})

	if _, err := s.Answer(correctKey(s)); err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}
	if view := s.Snapshot(); view.RemainingSecs == nil || *view.RemainingSecs != 1200 {
		t.Errorf("remaining seconds = %v, want 1200", view.RemainingSecs)
	}

	clock.t = clock.t.Add(21 * time.Minute)
	if err := s.Next(); !errors.Is(err, ErrTimeUp) {
		t.Fatalf("Next() after deadline = %v, want ErrTimeUp", err)
	}
	if s.State() != StateSubmitted {
		t.Errorf("state = %s, want submitted", s.State())
	}

	result := s.Result()
	if result == nil || !result.AutoSubmitted {
		t.Fatalf("result = %+v, want auto-submitted", result)
	}
	if result.Score != 1 || result.Percentage != 20.0 || result.Grade != models.GradeD {
		t.Errorf("result = %+v, want 1, 20.0, D", result)
	}
	if result.TimeSpent != 1200 {
		t.Errorf("time spent = %d, want capped at 1200", result.TimeSpent)
	}
}

func TestSubmitAfterDeadlineReturnsResult(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(4)}, Options{TimeLimit: time.Minute, Now: clock.now})
	clock.t = clock.t.Add(2 * time.Minute)

	result, err := s.Submit()
	if err != nil || result == nil || !result.AutoSubmitted {
		t.Errorf("Submit() after deadline = %+v, %v", result, err)
	}
}

func TestExamBuilderKeepsOrder(t *testing.T) {
	exam := ExamBuilder{Questions: []models.ExamQuestion{
		{Question: "q1", Options: models.Options{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}}, CorrectAnswer: "B", Explanation: "because"},
		{Question: "q2", Options: models.Options{{Key: "A", Text: "x"}, {Key: "B", Text: "y"}}, CorrectAnswer: "A"},
	}}
	s := newStartedSession(t, exam, Options{AllowSkip: true})

	if view := s.Snapshot(); view.Question.Prompt != "q1" || view.Question.CorrectKey != "" {
		t.Errorf("first question view = %+v", view.Question)
	}
	fb, err := s.Answer("B")
	if err != nil || !fb.Correct || fb.Explanation != "because" || fb.CorrectText != "y" {
		t.Errorf("feedback = %+v, %v", fb, err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if view := s.Snapshot(); view.Question.Prompt != "q2" {
		t.Errorf("second prompt = %s", view.Question.Prompt)
	}

	result, err := s.Submit()
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if result.Score != 1 || result.Total != 2 || result.Grade != models.GradeC {
		t.Errorf("result = %+v, want 1/2 C", result)
	}
	if view := s.Snapshot(); view.Question.CorrectKey != "A" {
		t.Errorf("unanswered question should reveal its answer after submit, got %q", view.Question.CorrectKey)
	}
}

func TestSaveClaim(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(2)}, Options{})
	if s.BeginSave() {
		t.Fatal("BeginSave() succeeded before submit")
	}
	if _, err := s.Submit(); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	if !s.BeginSave() {
		t.Fatal("BeginSave() refused the first claim")
	}
	if s.BeginSave() {
		t.Error("second claim granted while the first is in flight")
	}
	s.EndSave(false)
	if s.Saved() {
		t.Error("failed save reported as saved")
	}

	if !s.BeginSave() {
		t.Fatal("claim not released after a failed save")
	}
	s.EndSave(true)
	if !s.Saved() || s.BeginSave() {
		t.Errorf("saved = %v; a saved result must not be claimed again", s.Saved())
	}
}

func TestSaveClaimConcurrent(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(2)}, Options{})
	if _, err := s.Submit(); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		claimed atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.BeginSave() {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := claimed.Load(); got != 1 {
		t.Errorf("%d goroutines claimed the save, want 1", got)
	}
}

type flakyBuilder struct {
	items []Item
	calls int
	err   error
}

func (b *flakyBuilder) Build(rng *rand.Rand) ([]Question, error) {
	b.calls++
	if b.calls > 1 {
		return nil, b.err
	}
	return PoolBuilder{Items: b.items}.Build(rng)
}

func TestRetakeKeepsResultsWhenRebuildFails(t *testing.T) {
	builder := &flakyBuilder{items: hiraganaItems(4), err: errors.New("pool unavailable")}
	s := newStartedSession(t, builder, Options{})
	if _, err := s.Submit(); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if _, err := s.Results(); err != nil {
		t.Fatalf("Results() failed: %v", err)
	}

	if err := s.Retake(); !errors.Is(err, builder.err) {
		t.Fatalf("Retake() = %v, want the build error", err)
	}
	if s.State() != StateResultsDisplayed {
		t.Errorf("state after failed retake = %s, want results", s.State())
	}
	if s.Result() == nil {
		t.Error("previous result discarded by a failed retake")
	}
	if err := s.Retake(); !errors.Is(err, builder.err) {
		t.Errorf("second Retake() = %v, want the build error again", err)
	}
}

func TestRetakeRefusedWhileSaving(t *testing.T) {
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(2)}, Options{})
	_, _ = s.Submit()
	_, _ = s.Results()

	s.BeginSave()
	if err := s.Retake(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Retake() during save = %v, want ErrInvalidTransition", err)
	}
	s.EndSave(true)
	if err := s.Retake(); err != nil {
		t.Errorf("Retake() after save failed: %v", err)
	}
}

func TestRemainingSecondsRoundUp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(3)}, Options{
		TimeLimit: 30 * time.Minute,
		Now:       clock.now,
	})

	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 1800},
		{time.Millisecond, 1800},
		{999 * time.Millisecond, 1800},
		{time.Second, 1799},
		{30*time.Minute - time.Millisecond, 1},
	}
	start := clock.t
	for _, tt := range tests {
		clock.t = start.Add(tt.elapsed)
		view := s.Snapshot()
		if view.RemainingSecs == nil || *view.RemainingSecs != tt.want {
			got := "nil"
			if view.RemainingSecs != nil {
				got = fmt.Sprint(*view.RemainingSecs)
			}
			t.Errorf("after %v remaining = %s, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestActionsAfterSilentExpiryReportTimeUp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := newStartedSession(t, PoolBuilder{Items: hiraganaItems(3)}, Options{
		TimeLimit: 20 * time.Minute,
		Now:       clock.now,
	})

	clock.t = clock.t.Add(20 * time.Minute)
	if view := s.Snapshot(); view.State != StateSubmitted || view.Result == nil || !view.Result.AutoSubmitted {
		t.Fatalf("snapshot after deadline = %+v, want auto-submitted", view)
	}

	if _, err := s.Answer("A"); !errors.Is(err, ErrTimeUp) {
		t.Errorf("Answer() = %v, want ErrTimeUp", err)
	}
	if err := s.Next(); !errors.Is(err, ErrTimeUp) {
		t.Errorf("Next() = %v, want ErrTimeUp", err)
	}
	if err := s.Flag(0); !errors.Is(err, ErrTimeUp) {
		t.Errorf("Flag() = %v, want ErrTimeUp", err)
	}
}
