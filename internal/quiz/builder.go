package quiz

import (
	"errors"
	"math/rand"

	"nihongo/internal/models"
)

// ChoicesPerQuestion is the number of candidates shown when the pool allows it
const ChoicesPerQuestion = 4

var ErrEmptyPool = errors.New("quiz pool is empty")

// Item is one source entry of a generated quiz: the prompt shown and the value expected
type Item struct {
	Prompt  string
	Answer  string
	Reading string
	Example string
}

// Choice is one lettered answer candidate
type Choice struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is a prepared multiple-choice question
type Question struct {
	Prompt      string   `json:"prompt"`
	Choices     []Choice `json:"choices"`
	CorrectKey  string   `json:"-"`
	Explanation string   `json:"-"`
	Reading     string   `json:"reading,omitempty"`
	Audio       string   `json:"audio,omitempty"`
	Script      string   `json:"-"`
}

// CorrectText returns the text of the correct choice
func (q *Question) CorrectText() string {
	for _, c := range q.Choices {
		if c.Key == q.CorrectKey {
			return c.Text
		}
	}
	return ""
}

func (q *Question) hasChoice(key string) bool {
	for _, c := range q.Choices {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Builder prepares the questions of a session. It is called again on retake.
type Builder interface {
	Build(rng *rand.Rand) ([]Question, error)
}

// PoolBuilder draws a random subsequence from a pool of items and pairs each
// with distractors taken from the other items' answers
type PoolBuilder struct {
	Items []Item
	Limit int // 0 means the whole pool
}

// Build implements Builder
func (b PoolBuilder) Build(rng *rand.Rand) ([]Question, error) {
	if len(b.Items) == 0 {
		return nil, ErrEmptyPool
	}

	n := len(b.Items)
	if b.Limit > 0 && b.Limit < n {
		n = b.Limit
	}

	order := rng.Perm(len(b.Items))[:n]
	questions := make([]Question, 0, n)
	for _, idx := range order {
		item := b.Items[idx]
		texts := append([]string{item.Answer}, b.distractors(rng, item.Answer, ChoicesPerQuestion-1)...)
		rng.Shuffle(len(texts), func(i, j int) {
			texts[i], texts[j] = texts[j], texts[i]
		})

		q := Question{
			Prompt:      item.Prompt,
			Reading:     item.Reading,
			Explanation: item.Example,
		}
		for i, text := range texts {
			key := choiceKey(i)
			q.Choices = append(q.Choices, Choice{Key: key, Text: text})
			if text == item.Answer {
				q.CorrectKey = key
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// distractors samples up to count distinct answers other than correct. A pool
// with fewer distinct values yields fewer distractors.
func (b PoolBuilder) distractors(rng *rand.Rand, correct string, count int) []string {
	seen := map[string]bool{correct: true}
	candidates := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		if seen[item.Answer] {
			continue
		}
		seen[item.Answer] = true
		candidates = append(candidates, item.Answer)
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

// ExamBuilder serves fixed exam questions in their authored order
type ExamBuilder struct {
	Questions []models.ExamQuestion
}

// Build implements Builder
func (b ExamBuilder) Build(_ *rand.Rand) ([]Question, error) {
	if len(b.Questions) == 0 {
		return nil, ErrEmptyPool
	}
	questions := make([]Question, 0, len(b.Questions))
	for _, eq := range b.Questions {
		q := Question{
			Prompt:      eq.Question,
			CorrectKey:  eq.CorrectAnswer,
			Explanation: eq.Explanation,
			Audio:       eq.Audio,
			Script:      eq.Script,
		}
		for _, opt := range eq.Options {
			q.Choices = append(q.Choices, Choice{Key: opt.Key, Text: opt.Text})
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func choiceKey(i int) string {
	return string(rune('A' + i))
}
