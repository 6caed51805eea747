package quiz

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"nihongo/internal/models"
)

// State is a step of the quiz lifecycle
type State string

const (
	StateLoading          State = "loading"
	StateAnswering        State = "answering"
	StateFlagged          State = "flagged"
	StateReviewing        State = "reviewing"
	StateSubmitted        State = "submitted"
	StateResultsDisplayed State = "results"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in the current quiz state")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrInvalidChoice     = errors.New("choice is not one of the question's options")
	ErrNotAnswered       = errors.New("current question has not been answered")
	ErrQuestionIndex     = errors.New("question index out of range")
	ErrTimeUp            = errors.New("time limit reached, quiz submitted")
)

// Options configures a session
type Options struct {
	ID        string
	UserID    string
	Domain    models.Domain
	ExamID    string
	Title     string
	TimeLimit time.Duration // zero disables the countdown
	AllowSkip bool          // exams may move on without answering
	Now       func() time.Time
	Rand      *rand.Rand
}

// Result is the outcome of a submitted session
type Result struct {
	Score         int               `json:"score"`
	Total         int               `json:"total"`
	Percentage    float64           `json:"percentage"`
	Grade         models.Grade      `json:"grade"`
	Elapsed       time.Duration     `json:"-"`
	TimeSpent     int               `json:"timeSpent"` // seconds
	Answers       map[string]string `json:"answers"`
	Flagged       []int             `json:"flaggedQuestions"`
	AutoSubmitted bool              `json:"autoSubmitted"`
	CompletedAt   time.Time         `json:"completedAt"`
}

// Feedback is returned after an answer is locked in
type Feedback struct {
	Correct     bool   `json:"correct"`
	CorrectKey  string `json:"correctKey"`
	CorrectText string `json:"correctText"`
	Explanation string `json:"explanation,omitempty"`
	Script      string `json:"script,omitempty"`
	Score       int    `json:"score"`
}

type answer struct {
	selected string
	correct  bool
}

// Session is one run through a quiz or exam. It is safe for concurrent use.
type Session struct {
	opts    Options
	builder Builder

	mu        sync.Mutex
	state     State
	questions []Question
	answers   []*answer
	current   int
	flagged   map[int]bool
	score     int
	startedAt time.Time
	deadline  time.Time
	result    *Result
	saved     bool
	saving    bool
}

// NewSession creates a session in the Loading state
func NewSession(builder Builder, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		opts:    opts,
		builder: builder,
		state:   StateLoading,
		flagged: make(map[int]bool),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.opts.ID }

// UserID returns the owner of the session
func (s *Session) UserID() string { return s.opts.UserID }

// Domain returns the content domain being quizzed
func (s *Session) Domain() models.Domain { return s.opts.Domain }

// ExamID returns the exam identifier recorded with results
func (s *Session) ExamID() string { return s.opts.ExamID }

// Title returns the display title
func (s *Session) Title() string { return s.opts.Title }

// Start builds the questions and moves to Answering
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return ErrInvalidTransition
	}

	questions, err := s.builder.Build(s.opts.Rand)
	if err != nil {
		return err
	}

	s.questions = questions
	s.answers = make([]*answer, len(questions))
	s.current = 0
	s.score = 0
	s.flagged = make(map[int]bool)
	s.result = nil
	s.saved = false
	s.saving = false
	s.startedAt = s.opts.Now()
	s.deadline = time.Time{}
	if s.opts.TimeLimit > 0 {
		s.deadline = s.startedAt.Add(s.opts.TimeLimit)
	}
	s.state = StateAnswering
	return nil
}

func (s *Session) inProgress() bool {
	return s.state == StateAnswering || s.state == StateFlagged || s.state == StateReviewing
}

// expire auto-submits when the deadline has passed. Callers hold the lock.
func (s *Session) expire() bool {
	if !s.inProgress() || s.deadline.IsZero() {
		return false
	}
	if s.opts.Now().Before(s.deadline) {
		return false
	}
	s.finalize(true)
	return true
}

// closedErr is returned for actions on a finished run. Callers hold the lock.
func (s *Session) closedErr() error {
	if s.result != nil && s.result.AutoSubmitted {
		return ErrTimeUp
	}
	return ErrInvalidTransition
}

// Answer locks in the selection for the current question
func (s *Session) Answer(choice string) (*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expire() {
		return nil, ErrTimeUp
	}
	if !s.inProgress() {
		return nil, s.closedErr()
	}

	q := &s.questions[s.current]
	if s.answers[s.current] != nil {
		return nil, ErrAlreadyAnswered
	}
	if !q.hasChoice(choice) {
		return nil, ErrInvalidChoice
	}

	correct := choice == q.CorrectKey
	s.answers[s.current] = &answer{selected: choice, correct: correct}
	if correct {
		s.score++
	}

	return &Feedback{
		Correct:     correct,
		CorrectKey:  q.CorrectKey,
		CorrectText: q.CorrectText(),
		Explanation: q.Explanation,
		Script:      q.Script,
		Score:       s.score,
	}, nil
}

// Next advances to the following question, or to Reviewing after the last one
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expire() {
		return ErrTimeUp
	}
	if !s.inProgress() {
		return s.closedErr()
	}
	if s.state != StateAnswering && s.state != StateFlagged {
		return ErrInvalidTransition
	}
	if s.answers[s.current] == nil && !s.opts.AllowSkip {
		return ErrNotAnswered
	}

	if s.current == len(s.questions)-1 {
		s.state = StateReviewing
		return nil
	}
	s.current++
	return nil
}

// Goto moves the cursor to question i while reviewing or on a skippable exam
func (s *Session) Goto(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expire() {
		return ErrTimeUp
	}
	if !s.inProgress() {
		return s.closedErr()
	}
	if s.state != StateReviewing && !s.opts.AllowSkip {
		return ErrInvalidTransition
	}
	if i < 0 || i >= len(s.questions) {
		return ErrQuestionIndex
	}
	s.current = i
	return nil
}

// Flag marks question i for later review
func (s *Session) Flag(i int) error {
	return s.setFlag(i, true)
}

// Unflag clears the review mark of question i
func (s *Session) Unflag(i int) error {
	return s.setFlag(i, false)
}

func (s *Session) setFlag(i int, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expire() {
		return ErrTimeUp
	}
	if !s.inProgress() {
		return s.closedErr()
	}
	if i < 0 || i >= len(s.questions) {
		return ErrQuestionIndex
	}

	if on {
		s.flagged[i] = true
	} else {
		delete(s.flagged, i)
	}

	if s.state != StateReviewing {
		if len(s.flagged) > 0 {
			s.state = StateFlagged
		} else {
			s.state = StateAnswering
		}
	}
	return nil
}

// Submit finalizes the session. Unanswered questions count as wrong.
func (s *Session) Submit() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expire() {
		return s.result, nil
	}
	if !s.inProgress() {
		return nil, ErrInvalidTransition
	}
	s.finalize(false)
	return s.result, nil
}

func (s *Session) finalize(auto bool) {
	now := s.opts.Now()
	elapsed := now.Sub(s.startedAt)
	if !s.deadline.IsZero() && now.After(s.deadline) {
		elapsed = s.opts.TimeLimit
	}

	total := len(s.questions)
	percentage := models.Percentage(s.score, total)
	answers := make(map[string]string)
	for i, a := range s.answers {
		if a != nil {
			answers[strconv.Itoa(i)] = a.selected
		}
	}

	s.result = &Result{
		Score:         s.score,
		Total:         total,
		Percentage:    percentage,
		Grade:         models.GradeFor(percentage),
		Elapsed:       elapsed,
		TimeSpent:     int(elapsed.Seconds()),
		Answers:       answers,
		Flagged:       s.flaggedLocked(),
		AutoSubmitted: auto,
		CompletedAt:   now,
	}
	s.state = StateSubmitted
}

// Results shows the submitted result and moves to ResultsDisplayed
func (s *Session) Results() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire()
	if s.state != StateSubmitted && s.state != StateResultsDisplayed {
		return nil, ErrInvalidTransition
	}
	s.state = StateResultsDisplayed
	return s.result, nil
}

// Retake discards the previous run and rebuilds the questions,
// and returns to ResultsDisplayed when that fails. A run whose result is
// being saved cannot be retaken.
func (s *Session) Retake() error {
	s.mu.Lock()
	if s.state != StateResultsDisplayed || s.saving {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = StateLoading
	s.mu.Unlock()

	if err := s.Start(); err != nil {
		s.mu.Lock()
		s.state = StateResultsDisplayed
		s.mu.Unlock()
		return err
	}
	return nil
}

// BeginSave claims the right to persist the current result. It reports false
// when there is no result, or when it is already saved or being saved.
func (s *Session) BeginSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil || s.saved || s.saving {
		return false
	}
	s.saving = true
	return true
}

// EndSave releases the claim taken by BeginSave, recording whether the save succeeded
func (s *Session) EndSave(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if ok {
		s.saved = true
	}
}

// Saved reports whether the current result was persisted
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Result returns the submitted result, if any
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// State returns the current lifecycle state, applying any expired deadline
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire()
	return s.state
}

func (s *Session) flaggedLocked() []int {
	flagged := make([]int, 0, len(s.flagged))
	for i := range s.flagged {
		flagged = append(flagged, i)
	}
	sort.Ints(flagged)
	return flagged
}

// QuestionView is a question as presented to the learner
type QuestionView struct {
	Index      int      `json:"index"`
	Prompt     string   `json:"prompt"`
	Reading    string   `json:"reading,omitempty"`
	Audio      string   `json:"audio,omitempty"`
	Choices    []Choice `json:"choices"`
	Selected   string   `json:"selected,omitempty"`
	Answered   bool     `json:"answered"`
	Correct    *bool    `json:"correct,omitempty"`
	CorrectKey string   `json:"correctKey,omitempty"`
	Flagged    bool     `json:"flagged"`
}

// View is a snapshot of the session for rendering
type View struct {
	ID            string        `json:"id"`
	Domain        models.Domain `json:"domain"`
	Title         string        `json:"title"`
	State         State         `json:"state"`
	Current       int           `json:"current"`
	Total         int           `json:"total"`
	Answered      int           `json:"answered"`
	Score         int           `json:"score"`
	Question      *QuestionView `json:"question,omitempty"`
	Flagged       []int         `json:"flagged"`
	RemainingSecs *int          `json:"remainingSeconds,omitempty"`
	Result        *Result       `json:"result,omitempty"`
	Saved         bool          `json:"saved"`
}

// Snapshot returns the current view. The correct answer of a question is only
// revealed once it has been answered or the session is submitted.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expire()

	v := View{
		ID:      s.opts.ID,
		Domain:  s.opts.Domain,
		Title:   s.opts.Title,
		State:   s.state,
		Current: s.current,
		Total:   len(s.questions),
		Score:   s.score,
		Flagged: s.flaggedLocked(),
		Result:  s.result,
		Saved:   s.saved,
	}
	for _, a := range s.answers {
		if a != nil {
			v.Answered++
		}
	}

	if s.state != StateLoading && len(s.questions) > 0 {
		q := s.questions[s.current]
		qv := &QuestionView{
			Index:   s.current,
			Prompt:  q.Prompt,
			Reading: q.Reading,
			Audio:   q.Audio,
			Choices: q.Choices,
			Flagged: s.flagged[s.current],
		}
		if a := s.answers[s.current]; a != nil {
			correct := a.correct
			qv.Answered = true
			qv.Selected = a.selected
			qv.Correct = &correct
			qv.CorrectKey = q.CorrectKey
		} else if !s.inProgress() {
			qv.CorrectKey = q.CorrectKey
		}
		v.Question = qv
	}

	if s.inProgress() && !s.deadline.IsZero() {
		remaining := int(math.Ceil(s.deadline.Sub(s.opts.Now()).Seconds()))
		if remaining < 0 {
			remaining = 0
		}
		v.RemainingSecs = &remaining
	}
	return v
}
