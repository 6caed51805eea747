package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nihongo/internal/security"
	"nihongo/internal/service"
)

// AuthHandler handles sign-in and sign-out
type AuthHandler struct {
	authService     *service.AuthService
	provider        OAuthProvider
	signer          *security.StateSigner
	redirectBaseURL string
	frontendURL     string
	logger          *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, provider OAuthProvider, signer *security.StateSigner, redirectBaseURL, frontendURL string, logger *zap.Logger) *AuthHandler {
	if provider.UserInfoURL == "" {
		provider.UserInfoURL = GoogleUserInfoURL
	}
	if provider.Name == "" {
		provider.Name = "google"
	}
	return &AuthHandler{
		authService:     authService,
		provider:        provider,
		signer:          signer,
		redirectBaseURL: redirectBaseURL,
		frontendURL:     frontendURL,
		logger:          logger,
	}
}

// Logout clears the session cookie. Tokens are stateless, so nothing is revoked server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}
