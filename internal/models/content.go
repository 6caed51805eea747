package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Level is a JLPT tier, N5 easiest through N1 hardest
type Level string

const (
	LevelN5 Level = "N5"
	LevelN4 Level = "N4"
	LevelN3 Level = "N3"
	LevelN2 Level = "N2"
	LevelN1 Level = "N1"
)

// AllLevels lists the JLPT tiers from easiest to hardest
var AllLevels = []Level{LevelN5, LevelN4, LevelN3, LevelN2, LevelN1}

// ParseLevel normalizes user input such as "n5" into a Level
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	for _, l := range AllLevels {
		if l == level {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown JLPT level %q", s)
}

// Domain identifies one kind of study content
type Domain string

const (
	DomainHiragana   Domain = "hiragana"
	DomainKatakana   Domain = "katakana"
	DomainKanji      Domain = "kanji"
	DomainVocabulary Domain = "vocabulary"
	DomainGrammar    Domain = "grammar"
	DomainListening  Domain = "listening"
	DomainExam       Domain = "exam"
)

// Flashcard is a single character or vocabulary study unit
type Flashcard struct {
	ID            string `json:"id"`
	Front         string `json:"front"`
	Reading       string `json:"reading"`
	Pronunciation string `json:"pronunciation"`
	Meaning       string `json:"meaning"`
	Example       string `json:"example,omitempty"`
	Lesson        string `json:"lesson,omitempty"`
}

// Deck is a named set of flashcards for one level
type Deck struct {
	Name  string      `json:"name"`
	Level Level       `json:"level"`
	Cards []Flashcard `json:"cards"`
}

// GrammarStructure is one pattern taught in a grammar lesson
type GrammarStructure struct {
	Pattern string `json:"pattern"`
	Example string `json:"example,omitempty"`
	Meaning string `json:"meaning,omitempty"`
}

// GrammarLesson groups grammar structures
type GrammarLesson struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Level      Level              `json:"level"`
	Structures []GrammarStructure `json:"structures"`
}

// Option is one lettered answer choice of an exam question
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Options is an ordered list of answer choices. It decodes both the bundled
// array form ["A. ...", "B. ..."] and the generated object form {"A": "...", "B": "..."}.
type Options []Option

// UnmarshalJSON implements json.Unmarshaler
func (o *Options) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(Options, 0, len(list))
		for i, text := range list {
			out = append(out, Option{Key: string(rune('A' + i)), Text: text})
		}
		*o = out
		return nil
	}

	var byKey map[string]string
	if err := json.Unmarshal(data, &byKey); err == nil {
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Options, 0, len(keys))
		for _, k := range keys {
			out = append(out, Option{Key: k, Text: byKey[k]})
		}
		*o = out
		return nil
	}

	var objects []Option
	if err := json.Unmarshal(data, &objects); err != nil {
		return fmt.Errorf("options must be a list or a key/value object")
	}
	*o = objects
	return nil
}

// Text returns the text of the option with the given key
func (o Options) Text(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

// ExamQuestion is a fixed multiple-choice question from an exam, a listening
// section or an AI-generated set
type ExamQuestion struct {
	ID            string  `json:"id,omitempty"`
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   string  `json:"explanation,omitempty"`
	Audio         string  `json:"audio,omitempty"`
	Script        string  `json:"script,omitempty"`
	LessonID      string  `json:"lessonId,omitempty"`
	LessonTitle   string  `json:"lessonTitle,omitempty"`
}

// UnmarshalJSON accepts "answer" as an alias of "correctAnswer"
func (q *ExamQuestion) UnmarshalJSON(data []byte) error {
	type plain ExamQuestion
	aux := struct {
		*plain
		Answer string `json:"answer"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = aux.Answer
	}
	return nil
}

// ExamSection is a titled group of questions
type ExamSection struct {
	Title     string         `json:"title"`
	Questions []ExamQuestion `json:"questions"`
}

// Exam is a timed question set: the bundled sample, the listening test or an AI-generated set
type Exam struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Level            Level         `json:"level"`
	Type             string        `json:"type"`
	TimeLimitMinutes int           `json:"timeLimitMinutes"`
	Sections         []ExamSection `json:"sections"`
}

// AllQuestions flattens the sections in order
func (e *Exam) AllQuestions() []ExamQuestion {
	var all []ExamQuestion
	for _, s := range e.Sections {
		all = append(all, s.Questions...)
	}
	return all
}
