package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pdf-reader-session/internal/domain"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort            string
	LogLevel              string
	SessionStore          string
	DatabasePath          string
	DatabaseURL           string
	SupabaseURL           string
	SupabaseKey           string
	DocumentRoot          string
	AllowedOrigins        []string
	Reader                domain.ReaderSettings
	SessionIdleTimeoutMin int
	SessionSweepSpec      string
	WatchDocuments        bool
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	defaults := domain.DefaultReaderSettings()

	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:     getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		SessionStore:   strings.ToLower(getEnvOrDefault("SESSION_STORE", "sqlite")),
		DatabasePath:   getEnvOrDefault("DATABASE_PATH", "./data/sessions.db"),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
		SupabaseURL:    getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:    getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		DocumentRoot:   getEnvOrDefault("DOCUMENT_ROOT", "./documents"),
		AllowedOrigins: getEnvListOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins),
		Reader: domain.ReaderSettings{
			SaveDebounce:     time.Duration(getEnvIntOrDefault("SAVE_DEBOUNCE_MS", int(defaults.SaveDebounce/time.Millisecond))) * time.Millisecond,
			PreloadWindow:    getEnvIntOrDefault("PRELOAD_WINDOW", defaults.PreloadWindow),
			VisibilityMargin: getEnvFloatOrDefault("VISIBILITY_MARGIN", defaults.VisibilityMargin),
			SwipeMinDistance: getEnvFloatOrDefault("SWIPE_MIN_DISTANCE", defaults.SwipeMinDistance),
			BasePageWidth:    getEnvFloatOrDefault("BASE_PAGE_WIDTH", defaults.BasePageWidth),
			RenderPixelRatio: getEnvFloatOrDefault("RENDER_PIXEL_RATIO", defaults.RenderPixelRatio),
		},
		SessionIdleTimeoutMin: getEnvIntOrDefault("SESSION_IDLE_TIMEOUT_MIN", 30),
		SessionSweepSpec:      getEnvOrDefault("SESSION_SWEEP_SPEC", "@every 1m"),
		WatchDocuments:        getEnvBoolOrDefault("WATCH_DOCUMENTS", true),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSessionStore returns the persistence backend name
func (c *AppConfig) GetSessionStore() string {
	return c.SessionStore
}

// GetDatabasePath returns the SQLite file path
func (c *AppConfig) GetDatabasePath() string {
	return c.DatabasePath
}

// GetDatabaseURL returns the postgres/mysql DSN
func (c *AppConfig) GetDatabaseURL() string {
	return c.DatabaseURL
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetDocumentRoot returns the directory documents are opened from
func (c *AppConfig) GetDocumentRoot() string {
	return c.DocumentRoot
}

// GetAllowedOrigins returns the CORS origins
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetReaderSettings returns the reading engine thresholds
func (c *AppConfig) GetReaderSettings() domain.ReaderSettings {
	return c.Reader
}

// GetSessionIdleTimeoutMinutes returns how long a session may stay idle before it is closed
func (c *AppConfig) GetSessionIdleTimeoutMinutes() int {
	return c.SessionIdleTimeoutMin
}

// GetSessionSweepSpec returns the cron spec of the idle sweep
func (c *AppConfig) GetSessionSweepSpec() string {
	return c.SessionSweepSpec
}

// GetWatchDocuments reports whether open documents are reloaded when their file changes
func (c *AppConfig) GetWatchDocuments() bool {
	return c.WatchDocuments
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil && floatValue > 0 {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
