package handlers

import (
	"net/http"

	"nihongo/internal/service"
)

// NotificationHandler serves broadcast notifications and read receipts
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the active notifications with the user's read state
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	notifications, err := h.notificationService.List(r.Context(), session.UserID)
	if err != nil {
		respondWithServiceError(w, "Failed to list notifications", err)
		return
	}
	respondWithJSON(w, http.StatusOK, notifications)
}

// Create broadcasts a notification to every user (admin only)
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", err)
		return
	}

	notification, err := h.notificationService.Create(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "Failed to create notification", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, notification)
}

// MarkRead records that the user has read a notification
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	if err := h.notificationService.MarkRead(r.Context(), session.UserID, r.PathValue("id")); err != nil {
		respondWithServiceError(w, "Failed to mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnreadCount returns the number shown on the bell badge
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	count, err := h.notificationService.UnreadCount(r.Context(), session.UserID)
	if err != nil {
		respondWithServiceError(w, "Failed to count notifications", err)
		return
	}
	respondWithJSON(w, http.StatusOK, count)
}
