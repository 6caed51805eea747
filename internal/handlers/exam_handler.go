package handlers

import (
	"net/http"
	"strconv"

	"nihongo/internal/service"
)

// ExamHandler serves saved exam results
type ExamHandler struct {
	examService *service.ExamService
	quizService *service.QuizService
}

// NewExamHandler creates a new exam handler
func NewExamHandler(examService *service.ExamService, quizService *service.QuizService) *ExamHandler {
	return &ExamHandler{examService: examService, quizService: quizService}
}

type saveResultRequest struct {
	QuizID string `json:"quizId"`
}

// SaveResult stores the result of a submitted quiz whose automatic save failed
func (h *ExamHandler) SaveResult(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var req saveResultRequest
	if err := decodeJSON(w, r, &req); err != nil || req.QuizID == "" {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	result, err := h.quizService.SaveResult(r.Context(), session, req.QuizID)
	if err != nil {
		respondWithServiceError(w, "Failed to save exam result", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// History lists the newest results, ?limit= caps the count
func (h *ExamHandler) History(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "Giới hạn không hợp lệ", "", err)
			return
		}
		limit = n
	}

	results, err := h.examService.History(r.Context(), session.UserID, limit)
	if err != nil {
		respondWithServiceError(w, "Failed to load exam history", err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

// Stats aggregates the user's results
func (h *ExamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	stats, err := h.examService.Stats(r.Context(), session.UserID)
	if err != nil {
		respondWithServiceError(w, "Failed to load exam stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
