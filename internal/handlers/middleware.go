package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"nihongo/internal/models"
	"nihongo/internal/security"
	"nihongo/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService       *service.AuthService
	automationKeyHash string
	limiter           *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, automationKeyHash string, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService:       authService,
		automationKeyHash: automationKeyHash,
		limiter:           limiter,
	}
}

// RequireAuth is middleware that requires a valid session token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := m.authService.Authenticate(security.SessionToken(r))
		if err != nil {
			if _, cookieErr := r.Cookie(security.SessionCookieName); cookieErr == nil {
				http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			}
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "Rejected session", err)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin accepts an administrator session or the deploy pipeline's automation key
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(AutomationKeyHeader); key != "" {
			if !security.CheckKey(key, m.automationKeyHash) {
				respondWithError(w, http.StatusForbidden, ErrForbidden, "Invalid automation key", nil)
				return
			}
			next(w, r)
			return
		}

		session, err := m.authService.Authenticate(security.SessionToken(r))
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "Rejected session", err)
			return
		}
		if !session.IsAdmin {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles expensive endpoints per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", security.GetClientIP(r)),
			)
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
