package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"nihongo/internal/security"
	"nihongo/internal/service"
)

const (
	oauthCookieTTL = 10 * time.Minute
	oauthTimeout   = 10 * time.Second

	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var errUserInfo = errors.New("failed to fetch Google user info")

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

// StartOAuth initiates the Google sign-in flow
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	if !h.provider.configured() {
		respondWithError(w, http.StatusServiceUnavailable, "Đăng nhập Google chưa được cấu hình", "", nil)
		return
	}

	state := h.signer.New()
	h.setTempCookie(w, r, security.StateCookieName, state)
	if returnTo := safeReturnPath(r.URL.Query().Get("return_to")); returnTo != "" {
		h.setTempCookie(w, r, security.ReturnCookieName, returnTo)
	}

	config := h.oauthConfig()
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the Google callback, signs the user in and returns to the front-end
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !h.provider.configured() {
		respondWithError(w, http.StatusServiceUnavailable, "Đăng nhập Google chưa được cấu hình", "", nil)
		return
	}

	if oauthErr := r.URL.Query().Get("error"); oauthErr != "" {
		respondWithError(w, http.StatusBadRequest, "Đăng nhập bị hủy", "OAuth provider returned an error", errors.New(oauthErr))
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Thiếu mã xác thực", "", nil)
		return
	}

	stateCookie, err := r.Cookie(security.StateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state || !h.signer.Valid(state) {
		respondWithError(w, http.StatusBadRequest, "Phiên đăng nhập không hợp lệ", "Invalid OAuth state", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oauthTimeout)
	defer cancel()

	config := h.oauthConfig()
	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Không thể xác thực với Google", "Failed to exchange OAuth code", err)
		return
	}

	identity, err := h.fetchGoogleUser(ctx, token)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Không thể xác thực với Google", "Failed to fetch user info", err)
		return
	}

	returnTo := "/"
	if cookie, err := r.Cookie(security.ReturnCookieName); err == nil {
		if path := safeReturnPath(cookie.Value); path != "" {
			returnTo = path
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.StateCookieName))
	http.SetCookie(w, security.CreateDeleteCookie(r, security.ReturnCookieName))

	profile, sessionToken, expires, err := h.authService.SignIn(r.Context(), identity)
	if err != nil {
		respondWithServiceError(w, "Sign-in failed", err)
		return
	}

	h.logger.Info("User signed in", zap.String("uid", profile.UID))

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, sessionToken, expires))
	http.Redirect(w, r, strings.TrimRight(h.frontendURL, "/")+returnTo, http.StatusSeeOther)
}

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (service.Identity, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(h.provider.UserInfoURL)
	if err != nil {
		return service.Identity{}, fmt.Errorf("%w: %v", errUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return service.Identity{}, fmt.Errorf("%w: status %d", errUserInfo, resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return service.Identity{}, fmt.Errorf("failed to parse Google user info: %w", err)
	}

	return service.Identity{ID: payload.ID, Email: payload.Email, Name: payload.Name, Picture: payload.Picture}, nil
}

func (h *AuthHandler) oauthConfig() oauth2.Config {
	config := *h.provider.Config
	config.RedirectURL = fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(h.redirectBaseURL, "/"), h.provider.Name)
	return config
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, security.CreateSessionCookie(r, name, value, time.Now().Add(oauthCookieTTL)))
}

// safeReturnPath only accepts same-site absolute paths
func safeReturnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return ""
	}
	return p
}
