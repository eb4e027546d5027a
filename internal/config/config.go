// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/identity"
)

// Backend names.
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	AllowedOrigins []string
	DBPath         string

	AudioDir        string
	AudioFileMode   string
	// AudioTTL is how long per-session audio files are kept; 0 keeps them.
	AudioTTL        time.Duration
	DefaultLanguage domain.Language

	Completion CompletionConfig
	Profile    ProfileConfig
	Progress   ProgressConfig

	TTSBaseURL       string
	TranslateBaseURL string
	MetricsEnabled   bool
}

// CompletionConfig configures the chat-completion client.
type CompletionConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// ProfileConfig selects the profile document store.
type ProfileConfig struct {
	Backend         string
	ProjectID       string
	CredentialsFile string
	Collection      string
}

// ProgressConfig selects the progress store.
type ProgressConfig struct {
	Backend   string
	RedisAddr string
	KeyPrefix string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	lang, err := domain.ParseLanguage(getEnv("DEFAULT_LANGUAGE", string(domain.LanguageBengali)))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: DEFAULT_LANGUAGE: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DBPath:          getEnv("DB_PATH", "./data/healthcoach.db"),
		AudioDir:        getEnv("AUDIO_DIR", "./data/audio"),
		AudioFileMode:   strings.ToLower(getEnv("AUDIO_FILENAME_MODE", identity.ModeSession)),
		AudioTTL:        getEnvDuration("AUDIO_TTL", time.Hour),
		DefaultLanguage: lang,
		Completion: CompletionConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			MaxTokens:   getEnvInt("COMPLETION_MAX_TOKENS", 150),
			Temperature: getEnvFloat("COMPLETION_TEMPERATURE", 0.7),
		},
		Profile: ProfileConfig{
			Backend:         strings.ToLower(getEnv("PROFILE_BACKEND", BackendSQLite)),
			ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIREBASE_CERT_PATH", ""),
			Collection:      getEnv("FIRESTORE_COLLECTION", "users"),
		},
		Progress: ProgressConfig{
			Backend:   strings.ToLower(getEnv("PROGRESS_BACKEND", BackendSQLite)),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "progress:"),
		},
		TTSBaseURL:       getEnv("TTS_BASE_URL", ""),
		TranslateBaseURL: getEnv("TRANSLATE_BASE_URL", ""),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
	}

	if cfg.FrontendURL != "" && !contains(cfg.AllowedOrigins, cfg.FrontendURL) && !contains(cfg.AllowedOrigins, "*") {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, cfg.FrontendURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AudioDir == "" {
		return fmt.Errorf("AUDIO_DIR cannot be empty")
	}
	if c.AudioFileMode != identity.ModeSession && c.AudioFileMode != identity.ModeFixed {
		return fmt.Errorf("AUDIO_FILENAME_MODE must be %q or %q, got %q", identity.ModeSession, identity.ModeFixed, c.AudioFileMode)
	}
	if c.AudioTTL < 0 {
		return fmt.Errorf("AUDIO_TTL cannot be negative")
	}
	if c.Completion.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("OPENAI_MODEL cannot be empty")
	}
	if c.Completion.MaxTokens <= 0 {
		return fmt.Errorf("COMPLETION_MAX_TOKENS must be > 0")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("COMPLETION_TEMPERATURE must be within [0, 2]")
	}

	switch c.Profile.Backend {
	case BackendSQLite:
	case BackendFirestore:
		if c.Profile.ProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore profile backend")
		}
		if c.Profile.Collection == "" {
			return fmt.Errorf("FIRESTORE_COLLECTION cannot be empty")
		}
	default:
		return fmt.Errorf("PROFILE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendFirestore, c.Profile.Backend)
	}

	switch c.Progress.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Progress.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis progress backend")
		}
	default:
		return fmt.Errorf("PROGRESS_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Progress.Backend)
	}

	if c.NeedsSQLite() && c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	return nil
}

// NeedsSQLite reports whether either store is backed by SQLite.
func (c *Config) NeedsSQLite() bool {
	return c.Profile.Backend == BackendSQLite || c.Progress.Backend == BackendSQLite
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
