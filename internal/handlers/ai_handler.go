package handlers

import (
	"net/http"

	"nihongo/internal/ai"
	"nihongo/internal/service"
)

// AIHandler exposes the AI helper: explanations, generated question sets and chat
type AIHandler struct {
	aiService *service.AIService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(aiService *service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// Explain returns a markdown explanation of a question
func (h *AIHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ai.ExplainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	explanation, err := h.aiService.Explain(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "AI explanation failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, explainResponse{Explanation: explanation})
}

// Generate creates and saves a question set from grammar lessons
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var req service.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	set, err := h.aiService.Generate(r.Context(), session.UserID, req)
	if err != nil {
		respondWithServiceError(w, "Question generation failed", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, set)
}

// QuestionSets lists the user's generated sets
func (h *AIHandler) QuestionSets(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	sets, err := h.aiService.QuestionSets(r.Context(), session.UserID)
	if err != nil {
		respondWithServiceError(w, "Failed to list question sets", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sets)
}

// QuestionSet returns one generated set
func (h *AIHandler) QuestionSet(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	set, err := h.aiService.QuestionSet(r.Context(), session.UserID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Failed to load question set", err)
		return
	}
	respondWithJSON(w, http.StatusOK, set)
}

// ChatHistory returns the user's chat transcript
func (h *AIHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	messages, err := h.aiService.ChatHistory(r.Context(), session.UserID)
	if err != nil {
		respondWithServiceError(w, "Failed to load chat history", err)
		return
	}
	respondWithJSON(w, http.StatusOK, messages)
}

// Chat asks the assistant a free-form question
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	exchange, err := h.aiService.Chat(r.Context(), session.UserID, req.Message)
	if err != nil {
		respondWithServiceError(w, "AI chat failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, exchange)
}

// ClearChat deletes the user's chat transcript
func (h *AIHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	if err := h.aiService.ClearChat(r.Context(), session.UserID); err != nil {
		respondWithServiceError(w, "Failed to clear chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
