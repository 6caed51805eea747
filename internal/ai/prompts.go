package ai

import (
	"fmt"
	"strings"

	"nihongo/internal/models"
)

// ExplainRequest describes the question a learner wants explained
type ExplainRequest struct {
	Question      string         `json:"question"`
	UserAnswer    string         `json:"userAnswer"`
	CorrectAnswer string         `json:"correctAnswer"`
	QuestionType  string         `json:"questionType"`
	Options       models.Options `json:"options,omitempty"`
}

const markdownHint = "**Lưu ý:** Sử dụng markdown để format đẹp, bao gồm:\n" +
	"- **Bold** cho từ khóa quan trọng\n" +
	"- *Italic* cho nhấn mạnh\n" +
	"- `code` cho ví dụ ngắn\n" +
	"- Lists cho các điểm chính\n" +
	"- > Blockquote cho lưu ý đặc biệt"

func explainPrompt(req ExplainRequest) string {
	var b strings.Builder
	b.WriteString("Tôi đang học tiếng Nhật và gặp câu hỏi sau:\n\n")

	switch req.QuestionType {
	case "grammar", "exam", "listening":
		fmt.Fprintf(&b, "**Câu hỏi:** %s\n", req.Question)
		if len(req.Options) > 0 {
			b.WriteString("**Các lựa chọn:**\n")
			for _, opt := range req.Options {
				fmt.Fprintf(&b, "- %s: %s\n", opt.Key, opt.Text)
			}
		}
		fmt.Fprintf(&b, "**Đáp án của tôi:** %s\n", withOptionText(req.Options, req.UserAnswer))
		fmt.Fprintf(&b, "**Đáp án đúng:** %s\n\n", withOptionText(req.Options, req.CorrectAnswer))
		b.WriteString("Hãy giải thích chi tiết bằng tiếng Việt, sử dụng markdown format:\n\n")
		b.WriteString("## 📝 Phân tích\n")
		fmt.Fprintf(&b, "### 1. Tại sao đáp án đúng là \"%s\"?\n", req.CorrectAnswer)
		b.WriteString("### 2. Tại sao các đáp án khác sai?\n")
		b.WriteString("### 3. Cấu trúc ngữ pháp liên quan\n")
		b.WriteString("### 4. Ví dụ tương tự\n")
		b.WriteString("### 5. Lời khuyên học tập\n\n")
	case "kanji":
		fmt.Fprintf(&b, "**Hán tự:** %s\n", req.Question)
		fmt.Fprintf(&b, "**Đáp án của tôi:** %s\n", req.UserAnswer)
		fmt.Fprintf(&b, "**Đáp án đúng:** %s\n\n", req.CorrectAnswer)
		b.WriteString("Hãy giải thích chi tiết về Hán tự này bằng tiếng Việt, sử dụng markdown format:\n\n")
		b.WriteString("## 📝 Phân tích Hán tự\n")
		b.WriteString("### 1. Ý nghĩa và cách đọc\n")
		b.WriteString("### 2. Cách nhớ Hán tự\n")
		b.WriteString("### 3. Từ ghép thường gặp\n")
		b.WriteString("### 4. Lịch sử và nguồn gốc\n")
		b.WriteString("### 5. Lời khuyên học tập\n\n")
	default:
		fmt.Fprintf(&b, "**Câu hỏi:** %s\n", req.Question)
		fmt.Fprintf(&b, "**Đáp án của tôi:** %s\n", req.UserAnswer)
		fmt.Fprintf(&b, "**Đáp án đúng:** %s\n\n", req.CorrectAnswer)
		b.WriteString("Hãy giải thích chi tiết bằng tiếng Việt, sử dụng markdown format:\n\n")
		b.WriteString("## 📝 Phân tích\n")
		b.WriteString("### 1. Cách đọc và ý nghĩa\n")
		b.WriteString("### 2. Cách nhớ ký tự\n")
		b.WriteString("### 3. Từ liên quan\n")
		b.WriteString("### 4. Lời khuyên học tập\n\n")
	}

	b.WriteString(markdownHint)
	return b.String()
}

func withOptionText(opts models.Options, key string) string {
	if text, ok := opts.Text(key); ok {
		return fmt.Sprintf("%s (%s)", key, text)
	}
	return key
}

func questionsPrompt(lesson models.GrammarLesson) string {
	lines := make([]string, 0, len(lesson.Structures))
	for _, s := range lesson.Structures {
		lines = append(lines, fmt.Sprintf("%s - %s", s.Pattern, s.Example))
	}

	return fmt.Sprintf(`Tôi đang tạo câu hỏi trắc nghiệm cho bài học ngữ pháp tiếng Nhật.

**Bài học:** %s
**Cấu trúc ngữ pháp:**
%s

Hãy tạo 5 câu hỏi trắc nghiệm (multiple choice) cho bài học này. Mỗi câu hỏi phải có:
- 1 câu hỏi chính
- 4 lựa chọn A, B, C, D
- 1 đáp án đúng
- Giải thích ngắn gọn tại sao đáp án đó đúng

**Format trả lời bằng JSON:**
`+"```json"+`
[
  {
    "question": "Câu hỏi chính",
    "options": {"A": "Lựa chọn A", "B": "Lựa chọn B", "C": "Lựa chọn C", "D": "Lựa chọn D"},
    "correctAnswer": "A",
    "explanation": "Giải thích tại sao đáp án đúng"
  }
]
`+"```"+`

**Lưu ý:**
- Câu hỏi phải liên quan đến cấu trúc ngữ pháp trong bài học
- Độ khó phù hợp với trình độ %s
- Chỉ trả lời JSON, không có text khác`, lesson.Title, strings.Join(lines, "\n"), levelOrDefault(lesson.Level))
}

func levelOrDefault(level models.Level) models.Level {
	if level == "" {
		return models.LevelN5
	}
	return level
}

func chatPrompt(question string) string {
	return fmt.Sprintf(`Bạn là một giáo viên tiếng Nhật chuyên nghiệp. Hãy trả lời câu hỏi sau một cách chi tiết và hữu ích:

%s

Hãy trả lời bằng tiếng Việt, sử dụng markdown để format đẹp và dễ đọc.`, strings.TrimSpace(question))
}
