package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"nihongo/internal/quiz"
	"nihongo/internal/service"
)

// QuizHandler handles quiz and exam sessions
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

type answerRequest struct {
	Choice string `json:"choice"`
}

type answerResponse struct {
	Feedback *quiz.Feedback `json:"feedback"`
	Quiz     quiz.View      `json:"quiz"`
}

type submitResponse struct {
	Result    *quiz.Result `json:"result"`
	Saved     bool         `json:"saved"`
	SaveError string       `json:"saveError,omitempty"`
	Quiz      quiz.View    `json:"quiz"`
}

type timeUpResponse struct {
	Error string    `json:"error"`
	Quiz  quiz.View `json:"quiz"`
}

// Start creates a quiz session
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var req service.StartQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}
	if req.Level == "" {
		req.Level = "N5"
	}

	view, err := h.quizService.Start(r.Context(), session.UserID, req)
	if err != nil {
		respondWithServiceError(w, "Failed to start quiz", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

// View returns the current state of a quiz
func (h *QuizHandler) View(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	view, err := h.quizService.View(r.Context(), session, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Failed to load quiz", err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// Answer locks in a choice for the current question
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	feedback, view, err := h.quizService.Answer(r.Context(), session, r.PathValue("id"), req.Choice)
	if err != nil {
		h.respondWithStepError(w, view, err)
		return
	}
	respondWithJSON(w, http.StatusOK, answerResponse{Feedback: feedback, Quiz: view})
}

// Next advances to the following question
func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	view, err := h.quizService.Next(r.Context(), session, r.PathValue("id"))
	h.respondWithStep(w, view, err)
}

// Goto jumps to a question, used from the review screen
func (h *QuizHandler) Goto(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	view, err := h.quizService.Goto(r.Context(), session, r.PathValue("id"), index)
	h.respondWithStep(w, view, err)
}

// Flag marks a question for review
func (h *QuizHandler) Flag(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	view, err := h.quizService.Flag(r.Context(), session, r.PathValue("id"), index)
	h.respondWithStep(w, view, err)
}

// Unflag clears the review mark of a question
func (h *QuizHandler) Unflag(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	view, err := h.quizService.Unflag(r.Context(), session, r.PathValue("id"), index)
	h.respondWithStep(w, view, err)
}

// Submit finalizes a quiz and stores the result. A failed save still returns
// the result, with saved false and the reason.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	outcome, view, err := h.quizService.Submit(r.Context(), session, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Failed to submit quiz", err)
		return
	}

	resp := submitResponse{Result: outcome.Result, Saved: outcome.Saved, Quiz: view}
	if outcome.SaveError != nil {
		zap.L().Warn("Failed to save quiz result", zap.String("quizId", view.ID), zap.Error(outcome.SaveError))
		resp.SaveError = ErrSaveFailed
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Retake restarts a finished quiz with a fresh order
func (h *QuizHandler) Retake(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	view, err := h.quizService.Retake(session.UserID, r.PathValue("id"))
	h.respondWithStep(w, view, err)
}

func (h *QuizHandler) respondWithStep(w http.ResponseWriter, view quiz.View, err error) {
	if err != nil {
		h.respondWithStepError(w, view, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// respondWithStepError includes the submitted quiz when the deadline passed
func (h *QuizHandler) respondWithStepError(w http.ResponseWriter, view quiz.View, err error) {
	if errors.Is(err, quiz.ErrTimeUp) {
		respondWithJSON(w, http.StatusConflict, timeUpResponse{Error: "Hết giờ! Bài làm đã được nộp tự động.", Quiz: view})
		return
	}
	respondWithServiceError(w, "Quiz action failed", err)
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Số câu hỏi không hợp lệ", "", err)
		return 0, false
	}
	return index, true
}
