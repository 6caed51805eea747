package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"nihongo/internal/security"
)

func newFakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "access-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g-42","email":"lan@example.com","name":"Lan","picture":"https://p/lan.png"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newOAuthHandler(t *testing.T, app *testApp, google *httptest.Server) (*AuthHandler, *security.StateSigner) {
	t.Helper()
	signer := security.NewStateSigner("test-secret")
	provider := OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  google.URL + "/auth",
				TokenURL: google.URL + "/token",
			},
			Scopes: []string{"openid", "email", "profile"},
		},
		UserInfoURL: google.URL + "/userinfo",
	}
	return NewAuthHandler(app.auth, provider, signer, "http://api.local", "http://app.local", zap.NewNop()), signer
}

func TestStartOAuthUnconfigured(t *testing.T) {
	h := NewAuthHandler(nil, OAuthProvider{}, security.NewStateSigner("s"), "http://api.local", "http://app.local", zap.NewNop())

	rec := httptest.NewRecorder()
	h.StartOAuth(rec, httptest.NewRequest(http.MethodGet, "/auth/google/start", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestStartOAuthRedirects(t *testing.T) {
	app := newTestApp(t)
	google := newFakeGoogle(t)
	h, signer := newOAuthHandler(t, app, google)

	rec := httptest.NewRecorder()
	h.StartOAuth(rec, httptest.NewRequest(http.MethodGet, "/auth/google/start?return_to=/quiz", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location: %v", err)
	}
	if !strings.HasPrefix(location.String(), google.URL+"/auth") {
		t.Fatalf("redirected to %s", location)
	}
	if got := location.Query().Get("redirect_uri"); got != "http://api.local/auth/google/callback" {
		t.Fatalf("redirect_uri = %q", got)
	}

	state := location.Query().Get("state")
	if !signer.Valid(state) {
		t.Fatalf("state %q is not signed", state)
	}

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[security.StateCookieName] != state {
		t.Fatalf("state cookie = %q, want %q", cookies[security.StateCookieName], state)
	}
	if cookies[security.ReturnCookieName] != "/quiz" {
		t.Fatalf("return cookie = %q", cookies[security.ReturnCookieName])
	}
}

func TestOAuthCallback(t *testing.T) {
	app := newTestApp(t)
	google := newFakeGoogle(t)
	h, signer := newOAuthHandler(t, app, google)
	state := signer.New()

	callback := func(query, cookieState string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: security.StateCookieName, Value: cookieState})
			req.AddCookie(&http.Cookie{Name: security.ReturnCookieName, Value: "/exams"})
		}
		rec := httptest.NewRecorder()
		h.OAuthCallback(rec, req)
		return rec
	}

	tests := []struct {
		name        string
		query       string
		cookieState string
		want        int
	}{
		{"missing code", "state=" + url.QueryEscape(state), state, http.StatusBadRequest},
		{"missing cookie", "code=good-code&state=" + url.QueryEscape(state), "", http.StatusBadRequest},
		{"state mismatch", "code=good-code&state=other", state, http.StatusBadRequest},
		{"forged state", "code=good-code&state=abc.def", "abc.def", http.StatusBadRequest},
		{"provider error", "error=access_denied", state, http.StatusBadRequest},
		{"bad code", "code=bad&state=" + url.QueryEscape(state), state, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := callback(tt.query, tt.cookieState); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := callback("code=good-code&state="+url.QueryEscape(state), state)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (body %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "http://app.local/exams" {
		t.Fatalf("Location = %q", got)
	}

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			token = c.Value
		}
	}
	session, err := app.auth.Authenticate(token)
	if err != nil {
		t.Fatalf("session cookie does not authenticate: %v", err)
	}
	if session.UserID != "g-42" || session.Email != "lan@example.com" {
		t.Fatalf("session = %+v", session)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := NewAuthHandler(nil, OAuthProvider{}, security.NewStateSigner("s"), "", "", zap.NewNop())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != security.SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v", cookies)
	}
}

func TestSafeReturnPath(t *testing.T) {
	tests := map[string]string{
		"/quiz":            "/quiz",
		"":                 "",
		"//evil.example":   "",
		"https://evil.com": "",
		"/\\evil":          "",
	}
	for in, want := range tests {
		if got := safeReturnPath(in); got != want {
			t.Errorf("safeReturnPath(%q) = %q, want %q", in, got, want)
		}
	}
}
