package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nihongo/internal/ai"
	"nihongo/internal/content"
	"nihongo/internal/quiz"
	"nihongo/internal/service"
	"nihongo/internal/validation"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return body.Error
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if got := decodeError(t, recorder); got != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", got)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	entries := logs.FilterMessage("Internal server error").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %v", entries[0].Level)
	}
	if got := entries[0].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected logged error 'boom', got %v", got)
	}
}

func TestRespondWithServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest},
		{"unknown domain", content.ErrUnknownDomain, http.StatusBadRequest},
		{"invalid choice", fmt.Errorf("answer: %w", quiz.ErrInvalidChoice), http.StatusBadRequest},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized},
		{"quiz missing", service.ErrQuizNotFound, http.StatusNotFound},
		{"level unavailable", content.ErrLevelUnavailable, http.StatusNotFound},
		{"already answered", quiz.ErrAlreadyAnswered, http.StatusConflict},
		{"already saved", service.ErrAlreadySaved, http.StatusConflict},
		{"ai not configured", ai.ErrNotConfigured, http.StatusServiceUnavailable},
		{"ai api error", &ai.APIError{Status: 429, Message: "quota"}, http.StatusBadGateway},
		{"ai malformed", fmt.Errorf("generate: %w", ai.ErrMalformedResponse), http.StatusBadGateway},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithServiceError(rec, "test", tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRespondWithServiceErrorAIMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithServiceError(rec, "test", ai.ErrNotConfigured)

	if got, want := decodeError(t, rec), ai.UserMessage(ai.ErrNotConfigured); got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}
