package handlers

import (
	"net/http"

	"nihongo/internal/practice"
	"nihongo/internal/service"
)

// PracticeHandler handles flashcard practice requests
type PracticeHandler struct {
	practiceService *service.PracticeService
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(practiceService *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{practiceService: practiceService}
}

// Start builds a new deck for the signed-in user
func (h *PracticeHandler) Start(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var req service.StartPracticeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	view, err := h.practiceService.Start(session.UserID, req)
	if err != nil {
		respondWithServiceError(w, "Failed to start practice", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

// View returns the current card
func (h *PracticeHandler) View(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	view, err := h.practiceService.View(session.UserID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Failed to load practice", err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// Action applies next, prev, flip, known or unknown
func (h *PracticeHandler) Action(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	view, err := h.practiceService.Apply(session.UserID, r.PathValue("id"), practice.Action(r.PathValue("action")))
	if err != nil {
		respondWithServiceError(w, "Practice action failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}
