package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/content"
	"nihongo/internal/models"
	"nihongo/internal/quiz"
	"nihongo/internal/utils"
)

var (
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrResultNotReady = errors.New("quiz has not been submitted")
	ErrAlreadySaved   = errors.New("result already saved")
	ErrExamNotFound   = errors.New("exam not found")
)

// Time limits of timed tests
const (
	ExamTimeLimit      = 30 * time.Minute
	ListeningTimeLimit = 20 * time.Minute
)

// defaultQuizLength is the number of questions asked when the request names
// none. Domains not listed use the whole pool.
var defaultQuizLength = map[models.Domain]int{
	models.DomainHiragana:   10,
	models.DomainKatakana:   10,
	models.DomainVocabulary: 100,
}

// StartQuizRequest selects what to quiz
type StartQuizRequest struct {
	Domain models.Domain `json:"domain"`
	Level  models.Level  `json:"level"`
	Limit  int           `json:"limit"`
	ExamID string        `json:"examId"` // exam domain: sample exam when empty, otherwise a saved question set
}

// SubmitOutcome is the finalized result and whether it reached the database
type SubmitOutcome struct {
	Result    *quiz.Result `json:"result"`
	Saved     bool         `json:"saved"`
	SaveError error        `json:"-"`
}

type activeQuiz struct {
	session  *quiz.Session
	examType string
}

// QuizService runs quiz sessions held in memory
type QuizService struct {
	catalog  *content.Catalog
	sets     AIStore
	exams    *ExamService
	sessions *utils.TTLStore[*activeQuiz]
	logger   *zap.Logger
	now      func() time.Time
	newRand  func() *rand.Rand
}

// NewQuizService creates a new quiz service. Abandoned sessions expire after ttl.
func NewQuizService(catalog *content.Catalog, sets AIStore, exams *ExamService, ttl time.Duration, logger *zap.Logger) *QuizService {
	return &QuizService{
		catalog:  catalog,
		sets:     sets,
		exams:    exams,
		sessions: utils.NewTTLStore[*activeQuiz](ttl),
		logger:   logger,
		now:      time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Start creates and starts a session for the signed-in user
func (s *QuizService) Start(ctx context.Context, userID string, req StartQuizRequest) (quiz.View, error) {
	if req.Level == "" {
		req.Level = models.LevelN5
	}

	opts := quiz.Options{
		ID:     utils.NewID(),
		UserID: userID,
		Domain: req.Domain,
		Now:    s.now,
		Rand:   s.newRand(),
	}

	var (
		builder  quiz.Builder
		examType = string(req.Domain)
	)

	switch req.Domain {
	case models.DomainHiragana, models.DomainKatakana, models.DomainKanji, models.DomainVocabulary, models.DomainGrammar:
		deck, err := s.catalog.Deck(req.Domain, req.Level)
		if err != nil {
			return quiz.View{}, err
		}
		limit := req.Limit
		if limit <= 0 {
			limit = defaultQuizLength[req.Domain]
		}
		builder = quiz.PoolBuilder{Items: quizItems(req.Domain, deck), Limit: limit}
		opts.ExamID = string(req.Domain) + "-" + string(req.Level)
		opts.Title = deck.Name

	case models.DomainListening:
		exam, err := s.catalog.Listening(req.Level)
		if err != nil {
			return quiz.View{}, err
		}
		builder = examBuilder(exam, &opts, ListeningTimeLimit)

	case models.DomainExam:
		exam, err := s.findExam(ctx, userID, req)
		if err != nil {
			return quiz.View{}, err
		}
		builder = examBuilder(exam, &opts, ExamTimeLimit)
		examType = exam.Type

	default:
		return quiz.View{}, content.ErrUnknownDomain
	}

	session := quiz.NewSession(builder, opts)
	if err := session.Start(); err != nil {
		return quiz.View{}, err
	}
	s.sessions.Put(opts.ID, userID, &activeQuiz{session: session, examType: examType})

	s.logger.Debug("Started quiz",
		zap.String("uid", userID),
		zap.String("quizId", opts.ID),
		zap.String("domain", string(req.Domain)),
		zap.String("level", string(req.Level)),
	)
	return session.Snapshot(), nil
}

func (s *QuizService) findExam(ctx context.Context, userID string, req StartQuizRequest) (*models.Exam, error) {
	if req.ExamID == "" {
		return s.catalog.SampleExam(req.Level)
	}
	if sample, err := s.catalog.SampleExam(req.Level); err == nil && sample.ID == req.ExamID {
		return sample, nil
	}
	set, err := s.sets.GetQuestionSet(ctx, userID, req.ExamID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrExamNotFound
	}
	return set.ToExam(), nil
}

func examBuilder(exam *models.Exam, opts *quiz.Options, fallback time.Duration) quiz.Builder {
	opts.ExamID = exam.ID
	opts.Title = exam.Title
	opts.AllowSkip = true
	opts.TimeLimit = fallback
	if exam.TimeLimitMinutes > 0 {
		opts.TimeLimit = time.Duration(exam.TimeLimitMinutes) * time.Minute
	}
	return quiz.ExamBuilder{Questions: exam.AllQuestions()}
}

// quizItems turns flashcards into prompt/answer pairs: kana ask for the
// romanized reading, grammar for the pattern behind the example sentence,
// everything else for the meaning
func quizItems(domain models.Domain, deck *models.Deck) []quiz.Item {
	items := make([]quiz.Item, 0, len(deck.Cards))
	for _, card := range deck.Cards {
		item := quiz.Item{
			Prompt:  card.Front,
			Answer:  card.Meaning,
			Reading: card.Reading,
			Example: card.Example,
		}
		switch domain {
		case models.DomainHiragana, models.DomainKatakana:
			item.Answer = card.Pronunciation
			item.Reading = ""
		case models.DomainGrammar:
			item.Answer = card.Reading
			item.Reading = ""
			item.Example = card.Meaning
		}
		items = append(items, item)
	}
	return items
}

func (s *QuizService) get(userID, quizID string) (*activeQuiz, error) {
	active, ok := s.sessions.Get(quizID, userID)
	if !ok {
		return nil, ErrQuizNotFound
	}
	return active, nil
}

// View returns the current state of a session. A timed session whose
// deadline passed since the last request is submitted and saved here.
func (s *QuizService) View(ctx context.Context, session *models.Session, quizID string) (quiz.View, error) {
	active, err := s.get(session.UserID, quizID)
	if err != nil {
		return quiz.View{}, err
	}
	active.session.State() // applies a passed deadline
	s.saveIfTimedOut(ctx, session, active)
	return active.session.Snapshot(), nil
}

// Answer locks in a choice for the current question
func (s *QuizService) Answer(ctx context.Context, session *models.Session, quizID, choice string) (*quiz.Feedback, quiz.View, error) {
	active, err := s.get(session.UserID, quizID)
	if err != nil {
		return nil, quiz.View{}, err
	}
	feedback, err := active.session.Answer(choice)
	s.saveIfTimedOut(ctx, session, active)
	return feedback, active.session.Snapshot(), err
}

// Next advances to the following question
func (s *QuizService) Next(ctx context.Context, session *models.Session, quizID string) (quiz.View, error) {
	return s.step(ctx, session, quizID, (*quiz.Session).Next)
}

// Goto moves to question index
func (s *QuizService) Goto(ctx context.Context, session *models.Session, quizID string, index int) (quiz.View, error) {
	return s.step(ctx, session, quizID, func(q *quiz.Session) error { return q.Goto(index) })
}

// Flag marks question index for review
func (s *QuizService) Flag(ctx context.Context, session *models.Session, quizID string, index int) (quiz.View, error) {
	return s.step(ctx, session, quizID, func(q *quiz.Session) error { return q.Flag(index) })
}

// Unflag clears the review mark of question index
func (s *QuizService) Unflag(ctx context.Context, session *models.Session, quizID string, index int) (quiz.View, error) {
	return s.step(ctx, session, quizID, func(q *quiz.Session) error { return q.Unflag(index) })
}

func (s *QuizService) step(ctx context.Context, session *models.Session, quizID string, op func(*quiz.Session) error) (quiz.View, error) {
	active, err := s.get(session.UserID, quizID)
	if err != nil {
		return quiz.View{}, err
	}
	err = op(active.session)
	s.saveIfTimedOut(ctx, session, active)
	return active.session.Snapshot(), err
}

// Submit finalizes the session, shows its results and stores them. A failed
// save leaves the result available with Saved false.
func (s *QuizService) Submit(ctx context.Context, session *models.Session, quizID string) (*SubmitOutcome, quiz.View, error) {
	active, err := s.get(session.UserID, quizID)
	if err != nil {
		return nil, quiz.View{}, err
	}
	if _, err := active.session.Submit(); err != nil && !errors.Is(err, quiz.ErrInvalidTransition) {
		return nil, active.session.Snapshot(), err
	}
	result, err := active.session.Results()
	if err != nil {
		return nil, active.session.Snapshot(), err
	}

	outcome := &SubmitOutcome{Result: result}
	switch _, err := s.save(ctx, session, active); {
	case errors.Is(err, ErrAlreadySaved):
		// saved earlier, or by a concurrent request that reports its own outcome
		outcome.Saved = active.session.Saved()
	case err != nil:
		outcome.SaveError = err
	default:
		outcome.Saved = true
	}
	return outcome, active.session.Snapshot(), nil
}

// SaveResult stores the submitted result of a session that was not yet saved
func (s *QuizService) SaveResult(ctx context.Context, session *models.Session, quizID string) (*models.ExamResult, error) {
	active, err := s.get(session.UserID, quizID)
	if err != nil {
		return nil, err
	}
	if active.session.Result() == nil {
		return nil, ErrResultNotReady
	}
	return s.save(ctx, session, active)
}

// Retake starts the session over with a fresh question order
func (s *QuizService) Retake(userID, quizID string) (quiz.View, error) {
	active, err := s.get(userID, quizID)
	if err != nil {
		return quiz.View{}, err
	}
	if err := active.session.Retake(); err != nil {
		return active.session.Snapshot(), err
	}
	return active.session.Snapshot(), nil
}

// Sweep evicts abandoned sessions
func (s *QuizService) Sweep() int {
	return s.sessions.Sweep()
}

// saveIfTimedOut stores the result of a session the deadline submitted
func (s *QuizService) saveIfTimedOut(ctx context.Context, session *models.Session, active *activeQuiz) {
	result := active.session.Result()
	if result == nil || !result.AutoSubmitted {
		return
	}
	if _, err := s.save(ctx, session, active); err != nil && !errors.Is(err, ErrAlreadySaved) {
		s.logger.Warn("Failed to save timed-out quiz", zap.String("quizId", active.session.ID()), zap.Error(err))
	}
}

// save persists the current result once. Concurrent callers that lose the
// claim get ErrAlreadySaved.
func (s *QuizService) save(ctx context.Context, session *models.Session, active *activeQuiz) (*models.ExamResult, error) {
	if !active.session.BeginSave() {
		if active.session.Result() == nil {
			return nil, ErrResultNotReady
		}
		return nil, ErrAlreadySaved
	}
	saved, err := s.exams.SaveResult(ctx, session, ExamRecord{
		ExamID:    active.session.ExamID(),
		ExamTitle: active.session.Title(),
		ExamType:  active.examType,
		Result:    active.session.Result(),
	})
	active.session.EndSave(err == nil)
	if err != nil {
		return nil, err
	}
	return saved, nil
}
