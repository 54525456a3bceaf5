package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Auth configuration
	Auth AuthConfig

	// Redis configuration (login rate limiting)
	Redis RedisConfig

	// Mail configuration
	Mail MailConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// PublicURL is the externally reachable base URL, used to build
	// confirmation and reset links in outgoing mail.
	PublicURL string
}

// AuthConfig holds token and password hashing configuration
type AuthConfig struct {
	TokenSecret     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	OneTimeTokenTTL time.Duration
	Issuer          string
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int

	// Login rate limiting
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// MailConfig holds SMTP configuration for outgoing mail
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Redis:         loadRedisConfig(),
		Mail:          loadMailConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("BACKOFFICE_HOST", "0.0.0.0"),
		Port:            getEnv("BACKOFFICE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("BACKOFFICE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("BACKOFFICE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("BACKOFFICE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("BACKOFFICE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("BACKOFFICE_HEALTH_PORT", "9090"),
		PublicURL:       getEnv("BACKOFFICE_PUBLIC_URL", "http://localhost:8080"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if pgURL := getEnv("BACKOFFICE_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("BACKOFFICE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("BACKOFFICE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("BACKOFFICE_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}
	if mediaRoot := getEnv("BACKOFFICE_MEDIA_ROOT", ""); mediaRoot != "" {
		cfg.MediaRoot = mediaRoot
	}

	return cfg
}

// loadAuthConfig loads token configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		TokenSecret:     getEnv("BACKOFFICE_TOKEN_SECRET", ""),
		AccessTokenTTL:  getEnvDuration("BACKOFFICE_ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getEnvDuration("BACKOFFICE_REFRESH_TOKEN_TTL", 14*24*time.Hour),
		OneTimeTokenTTL: getEnvDuration("BACKOFFICE_ONE_TIME_TOKEN_TTL", 48*time.Hour),
		Issuer:          getEnv("BACKOFFICE_TOKEN_ISSUER", "backoffice"),
	}
}

// loadRedisConfig loads redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:             getEnv("BACKOFFICE_REDIS_URL", ""),
		Password:        getEnv("BACKOFFICE_REDIS_PASSWORD", ""),
		DB:              getEnvInt("BACKOFFICE_REDIS_DB", 0),
		LoginRateLimit:  getEnvInt("BACKOFFICE_LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("BACKOFFICE_LOGIN_RATE_WINDOW", time.Minute),
	}
}

// loadMailConfig loads SMTP configuration from environment
func loadMailConfig() MailConfig {
	return MailConfig{
		Enabled:  getEnvBool("BACKOFFICE_MAIL_ENABLED", false),
		Host:     getEnv("BACKOFFICE_SMTP_HOST", ""),
		Port:     getEnvInt("BACKOFFICE_SMTP_PORT", 587),
		Username: getEnv("BACKOFFICE_SMTP_USERNAME", ""),
		Password: getEnv("BACKOFFICE_SMTP_PASSWORD", ""),
		From:     getEnv("BACKOFFICE_MAIL_FROM", "noreply@hotelier.example"),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("BACKOFFICE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("BACKOFFICE_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Server.PublicURL == "" {
		return fmt.Errorf("public URL is required")
	}

	// Validate storage config
	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.MediaRoot == "" {
		return fmt.Errorf("media root is required")
	}

	// Validate auth config
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("token secret is required")
	}
	if len(c.Auth.TokenSecret) < 32 {
		return fmt.Errorf("token secret must be at least 32 bytes")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.Auth.AccessTokenTTL >= c.Auth.RefreshTokenTTL {
		return fmt.Errorf("access token TTL must be shorter than refresh token TTL")
	}

	// Validate mail config
	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return fmt.Errorf("SMTP host is required when mail is enabled")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail from address is required when mail is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
