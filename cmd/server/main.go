package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"nihongo/internal/ai"
	"nihongo/internal/audio"
	"nihongo/internal/config"
	"nihongo/internal/content"
	"nihongo/internal/database"
	"nihongo/internal/handlers"
	"nihongo/internal/logger"
	"nihongo/internal/repository"
	"nihongo/internal/security"
	"nihongo/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	log.Info("Migrations completed successfully")

	catalog, err := content.Load()
	if err != nil {
		log.Fatal("Failed to load bundled content", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	examRepo := repository.NewExamRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	aiRepo := repository.NewAIRepository(db)

	// Initialize services
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.SessionDuration)
	authService := service.NewAuthService(userRepo, tokens, cfg.IsAdminEmail, log)
	userService := service.NewUserService(userRepo, log)

	var mailer service.Mailer
	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.FrontendURL, cfg.EmailDebug, log)
	if err != nil {
		log.Warn("Email disabled", zap.Error(err))
	} else if emailService.IsEnabled() {
		mailer = emailService
	}

	examService := service.NewExamService(examRepo, userService, mailer, log)
	quizService := service.NewQuizService(catalog, aiRepo, examService, cfg.QuizSessionTTL, log)
	practiceService := service.NewPracticeService(catalog, cfg.QuizSessionTTL, log)
	notificationService := service.NewNotificationService(notificationRepo, log)

	aiClient, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.GeminiTimeout)
	if err != nil {
		log.Fatal("Failed to create AI client", zap.Error(err))
	}
	if !aiClient.Enabled() {
		log.Warn("GEMINI_API_KEY not set, AI helper disabled")
	}
	aiService := service.NewAIService(aiClient, catalog, aiRepo, log)

	ttsService := audio.NewTTSService(cfg.AudioPath, log)
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Background jobs
	scheduler := service.NewScheduler(log)
	mustSchedule(log, scheduler.AddSweep("@every 5m", "quiz sessions", quizService))
	mustSchedule(log, scheduler.AddSweep("@every 5m", "practice sessions", practiceService))
	mustSchedule(log, scheduler.AddSweep("@every 10m", "rate limiter", limiter))
	mustSchedule(log, scheduler.AddNotificationExpiry("@every 15m", notificationService))
	scheduler.Start()

	if cfg.DeploymentNotification {
		if _, err := notificationService.AnnounceDeployment(context.Background()); err != nil {
			log.Warn("Failed to create deployment notification", zap.Error(err))
		}
	}

	// Generate any missing listening audio
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if created := ttsService.Warm(ctx, catalog.ListeningScripts()); created > 0 {
			log.Info("Generated missing listening audio", zap.Int("files", created))
		}
	}()

	googleProvider := handlers.OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: handlers.GoogleUserInfoURL,
	}

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Handlers{
		Middleware:    handlers.NewMiddleware(authService, cfg.AutomationKeyHash, limiter),
		Auth:          handlers.NewAuthHandler(authService, googleProvider, security.NewStateSigner(cfg.JWTSecret), cfg.OAuthRedirectBaseURL, cfg.FrontendURL, log),
		Content:       handlers.NewContentHandler(catalog),
		Practice:      handlers.NewPracticeHandler(practiceService),
		Quiz:          handlers.NewQuizHandler(quizService),
		AI:            handlers.NewAIHandler(aiService),
		Profile:       handlers.NewProfileHandler(userService),
		Exam:          handlers.NewExamHandler(examService, quizService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Audio:         handlers.NewAudioHandler(ttsService, catalog, log),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", handlers.AutomationKeyHeader},
		AllowCredentials: true,
	})

	// Wrap with logging and CORS middleware
	handler := handlers.Logging(log)(corsHandler.Handler(mux))

	// AI calls can take the full Gemini timeout
	writeTimeout := 15 * time.Second
	if cfg.GeminiTimeout+5*time.Second > writeTimeout {
		writeTimeout = cfg.GeminiTimeout + 5*time.Second
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	<-scheduler.Stop().Done()
}

func mustSchedule(log *zap.Logger, err error) {
	if err != nil {
		log.Fatal("Failed to schedule job", zap.Error(err))
	}
}
