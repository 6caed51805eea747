package handlers

import (
	"net/http"

	"nihongo/internal/models"
	"nihongo/internal/service"
)

// ProfileHandler serves the signed-in user's profile
type ProfileHandler struct {
	userService *service.UserService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// Me returns the profile of the signed-in user
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	profile, err := h.userService.Profile(r.Context(), session)
	if err != nil {
		respondWithServiceError(w, "Failed to load profile", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpdatePersonalInfo replaces the personal info sub-record
func (h *ProfileHandler) UpdatePersonalInfo(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var info models.PersonalInfo
	if err := decodeJSON(w, r, &info); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	updated, err := h.userService.UpdatePersonalInfo(r.Context(), session.UserID, info)
	if err != nil {
		respondWithServiceError(w, "Failed to update personal info", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// UpdateLearningStats replaces the learning stats sub-record
func (h *ProfileHandler) UpdateLearningStats(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var stats models.LearningStats
	if err := decodeJSON(w, r, &stats); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	updated, err := h.userService.UpdateLearningStats(r.Context(), session.UserID, stats)
	if err != nil {
		respondWithServiceError(w, "Failed to update learning stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// UpdateSettings replaces the settings sub-record
func (h *ProfileHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	var settings models.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	updated, err := h.userService.UpdateSettings(r.Context(), session.UserID, settings)
	if err != nil {
		respondWithServiceError(w, "Failed to update settings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}
