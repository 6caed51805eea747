package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"nihongo/internal/models"
)

var (
	ErrNotConfigured     = errors.New("gemini API key is not configured")
	ErrMalformedResponse = errors.New("malformed model response")
)

// APIError is a non-2xx answer from the model endpoint
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error %d: %s", e.Status, e.Message)
}

const apiVersion = "v1beta"

var jsonFence = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// Client calls the Gemini generateContent endpoint. One request per call, no retries.
type Client struct {
	models  *genai.Models
	model   string
	timeout time.Duration
}

// NewClient creates a client whose requests are bounded by timeout. Without an
// API key the client is returned disabled.
func NewClient(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	c := &Client{model: model, timeout: timeout}
	if apiKey == "" {
		return c, nil
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.models = client.Models
	return c, nil
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.models != nil
}

// Generate sends a single prompt and returns the first candidate's text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			return "", apiErr
		}
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	return resp.Text(), nil
}

// asAPIError converts the SDK's error for a non-2xx answer
func asAPIError(err error) (*APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return newAPIError(value), true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return newAPIError(*ptr), true
	}
	return nil, false
}

func newAPIError(e genai.APIError) *APIError {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return &APIError{Status: e.Code, Message: msg}
}

// Explain asks the model why the correct answer is right and returns its markdown
func (c *Client) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	return c.Generate(ctx, explainPrompt(req))
}

// Chat answers a free-form learner question
func (c *Client) Chat(ctx context.Context, question string) (string, error) {
	return c.Generate(ctx, chatPrompt(question))
}

// GenerateQuestions asks for five multiple-choice questions about a lesson.
// The reply must carry a ```json fenced array; its shape is not validated further.
func (c *Client) GenerateQuestions(ctx context.Context, lesson models.GrammarLesson) ([]models.ExamQuestion, error) {
	text, err := c.Generate(ctx, questionsPrompt(lesson))
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestions(text)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].LessonID = lesson.ID
		questions[i].LessonTitle = lesson.Title
	}
	return questions, nil
}

// ParseQuestions extracts the fenced JSON block from a model reply
func ParseQuestions(text string) ([]models.ExamQuestion, error) {
	match := jsonFence.FindStringSubmatch(text)
	if match == nil {
		return nil, fmt.Errorf("%w: no json block found", ErrMalformedResponse)
	}

	var questions []models.ExamQuestion
	if err := json.Unmarshal([]byte(match[1]), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return questions, nil
}

// UserMessage renders an AI failure as the message shown to learners
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Lỗi API: %d - %s", apiErr.Status, apiErr.Message)
	case errors.Is(err, ErrNotConfigured):
		return "Chưa cấu hình API key cho AI. Vui lòng liên hệ quản trị viên."
	case errors.Is(err, ErrMalformedResponse):
		return "Có lỗi xảy ra khi tạo câu hỏi. Vui lòng thử lại."
	case errors.Is(err, context.DeadlineExceeded), isTransportError(err):
		return "Không thể kết nối với AI. Vui lòng kiểm tra kết nối mạng."
	default:
		return "Có lỗi xảy ra. Vui lòng thử lại sau."
	}
}

func isTransportError(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr)
}
