package models

import "time"

// QuestionSet is a saved batch of AI-generated grammar questions
type QuestionSet struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Name      string         `json:"name"`
	Questions []ExamQuestion `json:"questions"`
	CreatedAt time.Time      `json:"createdAt"`
}

// GeneratedExamMinutes is the time limit of exams built from a question set
const GeneratedExamMinutes = 30

// ToExam turns the set into a single-section timed exam
func (s *QuestionSet) ToExam() *Exam {
	return &Exam{
		ID:               s.ID,
		Title:            s.Name,
		Level:            LevelN5,
		Type:             "ai-grammar",
		TimeLimitMinutes: GeneratedExamMinutes,
		Sections: []ExamSection{
			{Title: s.Name, Questions: s.Questions},
		},
	}
}

const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

// ChatMessage is one turn of a user's AI chat transcript
type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
