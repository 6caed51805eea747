package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

const devJWTSecret = "dev-only-secret-change-me"

// Config holds application configuration
type Config struct {
	Env        string `mapstructure:"env"`
	ServerPort string `mapstructure:"port"`

	DatabaseType   string `mapstructure:"db_type"` // sqlite, postgres or mysql
	DatabasePath   string `mapstructure:"db_path"` // SQLite file
	DatabaseURL    string `mapstructure:"database_url"`
	MigrationsPath string `mapstructure:"migrations_path"`

	SessionDuration time.Duration `mapstructure:"session_duration"`
	JWTSecret       string        `mapstructure:"jwt_secret"`

	GoogleClientID       string `mapstructure:"google_client_id"`
	GoogleClientSecret   string `mapstructure:"google_client_secret"`
	OAuthRedirectBaseURL string `mapstructure:"oauth_redirect_base_url"`
	FrontendURL          string `mapstructure:"frontend_url"`

	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	GeminiModel   string        `mapstructure:"gemini_model"`
	GeminiBaseURL string        `mapstructure:"gemini_base_url"`
	GeminiTimeout time.Duration `mapstructure:"gemini_timeout"`

	AWSRegion    string `mapstructure:"aws_region"`
	SESFromEmail string `mapstructure:"ses_from_email"`
	SESFromName  string `mapstructure:"ses_from_name"`
	EmailDebug   bool   `mapstructure:"email_debug"`

	AdminEmails       []string `mapstructure:"admin_emails"`
	AutomationKeyHash string   `mapstructure:"automation_key_hash"` // bcrypt hash of the deploy pipeline key
	CORSOrigins       []string `mapstructure:"cors_origins"`
	AudioPath         string   `mapstructure:"audio_path"`

	QuizSessionTTL         time.Duration `mapstructure:"quiz_session_ttl"`
	RateLimitRequests      int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow        time.Duration `mapstructure:"rate_limit_window"`
	DeploymentNotification bool          `mapstructure:"deployment_notification"`
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsAdminEmail reports whether email belongs to a configured administrator
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(admin)) == email {
			return true
		}
	}
	return false
}

// Load reads configuration from .env, an optional config/config.yaml and the environment
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("db_type", "DB_TYPE")
	_ = v.BindEnv("db_path", "DB_PATH")
	_ = v.BindEnv("database_url", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = devJWTSecret
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_path", "./nihongo.db")
	v.SetDefault("database_url", "")
	v.SetDefault("migrations_path", "./migrations")
	v.SetDefault("session_duration", "168h")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("oauth_redirect_base_url", "http://localhost:8080")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com/")
	v.SetDefault("gemini_timeout", "30s")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("ses_from_email", "")
	v.SetDefault("ses_from_name", "Nihongo")
	v.SetDefault("email_debug", false)
	v.SetDefault("admin_emails", []string{})
	v.SetDefault("automation_key_hash", "")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("audio_path", "./static/audio")
	v.SetDefault("quiz_session_ttl", "2h")
	v.SetDefault("rate_limit_requests", 20)
	v.SetDefault("rate_limit_window", "1m")
	v.SetDefault("deployment_notification", false)
}
