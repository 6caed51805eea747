package handlers

import "net/http"

// Handlers groups every HTTP handler the server registers
type Handlers struct {
	Middleware    *Middleware
	Auth          *AuthHandler
	Content       *ContentHandler
	Practice      *PracticeHandler
	Quiz          *QuizHandler
	AI            *AIHandler
	Profile       *ProfileHandler
	Exam          *ExamHandler
	Notifications *NotificationHandler
	Audio         *AudioHandler
}

// RegisterRoutes wires every route onto mux
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	mw := h.Middleware

	mux.HandleFunc("GET /healthz", h.Content.Health)
	mux.HandleFunc("GET /api/levels", h.Content.Levels)
	mux.HandleFunc("GET /api/levels/{level}/modes", h.Content.Modes)
	mux.HandleFunc("GET /api/content/{domain}", h.Content.Content)
	mux.HandleFunc("GET /audio/{file}", h.Audio.Serve)

	// Auth
	mux.HandleFunc("GET /auth/google/start", mw.RateLimit(h.Auth.StartOAuth))
	mux.HandleFunc("GET /auth/google/callback", mw.RateLimit(h.Auth.OAuthCallback))
	mux.HandleFunc("POST /auth/logout", h.Auth.Logout)

	// Practice
	mux.HandleFunc("POST /api/practice", mw.RequireAuth(h.Practice.Start))
	mux.HandleFunc("GET /api/practice/{id}", mw.RequireAuth(h.Practice.View))
	mux.HandleFunc("POST /api/practice/{id}/{action}", mw.RequireAuth(h.Practice.Action))

	// Quizzes and exams
	mux.HandleFunc("POST /api/quizzes", mw.RequireAuth(h.Quiz.Start))
	mux.HandleFunc("GET /api/quizzes/{id}", mw.RequireAuth(h.Quiz.View))
	mux.HandleFunc("POST /api/quizzes/{id}/answer", mw.RequireAuth(h.Quiz.Answer))
	mux.HandleFunc("POST /api/quizzes/{id}/next", mw.RequireAuth(h.Quiz.Next))
	mux.HandleFunc("POST /api/quizzes/{id}/goto/{index}", mw.RequireAuth(h.Quiz.Goto))
	mux.HandleFunc("POST /api/quizzes/{id}/flag/{index}", mw.RequireAuth(h.Quiz.Flag))
	mux.HandleFunc("DELETE /api/quizzes/{id}/flag/{index}", mw.RequireAuth(h.Quiz.Unflag))
	mux.HandleFunc("POST /api/quizzes/{id}/submit", mw.RequireAuth(h.Quiz.Submit))
	mux.HandleFunc("POST /api/quizzes/{id}/retake", mw.RequireAuth(h.Quiz.Retake))

	mux.HandleFunc("POST /api/exams/results", mw.RequireAuth(h.Exam.SaveResult))
	mux.HandleFunc("GET /api/exams/results", mw.RequireAuth(h.Exam.History))
	mux.HandleFunc("GET /api/exams/stats", mw.RequireAuth(h.Exam.Stats))

	// AI helper
	mux.HandleFunc("POST /api/ai/explain", mw.RequireAuth(mw.RateLimit(h.AI.Explain)))
	mux.HandleFunc("POST /api/ai/generate", mw.RequireAuth(mw.RateLimit(h.AI.Generate)))
	mux.HandleFunc("GET /api/ai/question-sets", mw.RequireAuth(h.AI.QuestionSets))
	mux.HandleFunc("GET /api/ai/question-sets/{id}", mw.RequireAuth(h.AI.QuestionSet))
	mux.HandleFunc("GET /api/ai/chat", mw.RequireAuth(h.AI.ChatHistory))
	mux.HandleFunc("POST /api/ai/chat", mw.RequireAuth(mw.RateLimit(h.AI.Chat)))
	mux.HandleFunc("DELETE /api/ai/chat", mw.RequireAuth(h.AI.ClearChat))

	// Profile
	mux.HandleFunc("GET /api/me", mw.RequireAuth(h.Profile.Me))
	mux.HandleFunc("PUT /api/me/personal-info", mw.RequireAuth(h.Profile.UpdatePersonalInfo))
	mux.HandleFunc("PUT /api/me/learning-stats", mw.RequireAuth(h.Profile.UpdateLearningStats))
	mux.HandleFunc("PUT /api/me/settings", mw.RequireAuth(h.Profile.UpdateSettings))

	// Notifications
	mux.HandleFunc("GET /api/notifications", mw.RequireAuth(h.Notifications.List))
	mux.HandleFunc("POST /api/notifications", mw.RequireAdmin(h.Notifications.Create))
	mux.HandleFunc("POST /api/notifications/{id}/read", mw.RequireAuth(h.Notifications.MarkRead))
	mux.HandleFunc("GET /api/notifications/unread-count", mw.RequireAuth(h.Notifications.UnreadCount))
}
