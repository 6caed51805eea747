package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"nihongo/internal/ai"
	"nihongo/internal/content"
	"nihongo/internal/practice"
	"nihongo/internal/quiz"
	"nihongo/internal/service"
	"nihongo/internal/validation"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			zap.L().Error(logMsg, zap.Int("status", status), zap.Error(err))
		} else {
			zap.L().Debug(logMsg, zap.Int("status", status), zap.Error(err))
		}
	}

	respondWithJSON(w, status, errorBody{Error: userMsg})
}

func respondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// respondWithServiceError maps domain errors onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var ve validation.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Error(), logMsg, err)

	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, logMsg, err)

	case errors.Is(err, content.ErrLevelUnavailable):
		respondWithError(w, http.StatusNotFound, ErrLevelComingSoon, logMsg, err)

	case errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, service.ErrPracticeNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrQuestionSetAbsent),
		errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, content.ErrLessonNotFound),
		errors.Is(err, content.ErrEmptyPool),
		errors.Is(err, quiz.ErrEmptyPool),
		errors.Is(err, practice.ErrEmptyDeck):
		respondWithError(w, http.StatusNotFound, ErrNotFound, logMsg, err)

	case errors.Is(err, content.ErrUnknownDomain),
		errors.Is(err, quiz.ErrInvalidChoice),
		errors.Is(err, quiz.ErrQuestionIndex),
		errors.Is(err, practice.ErrUnknownAction),
		errors.Is(err, service.ErrNoLessons):
		respondWithError(w, http.StatusBadRequest, err.Error(), logMsg, err)

	case errors.Is(err, quiz.ErrInvalidTransition),
		errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrNotAnswered),
		errors.Is(err, quiz.ErrTimeUp),
		errors.Is(err, service.ErrResultNotReady),
		errors.Is(err, service.ErrAlreadySaved):
		respondWithError(w, http.StatusConflict, err.Error(), logMsg, err)

	case errors.Is(err, ai.ErrNotConfigured):
		respondWithError(w, http.StatusServiceUnavailable, ai.UserMessage(err), logMsg, err)

	case isAIError(err):
		respondWithError(w, http.StatusBadGateway, ai.UserMessage(err), logMsg, err)

	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func isAIError(err error) bool {
	var apiErr *ai.APIError
	var netErr net.Error
	return errors.As(err, &apiErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, ai.ErrMalformedResponse) ||
		errors.Is(err, context.DeadlineExceeded)
}
