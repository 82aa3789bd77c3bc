package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPasswordPattern requires a leading capital, word characters and at
// least one trailing digit, mirroring the seeded policy.
const DefaultPasswordPattern = `[A-Z]\w*\d+\S*`

// Config contains runtime configuration values.
type Config struct {
	Environment          string
	HTTPPort             string
	DatabaseURL          string
	ServiceName          string
	TokenSigningKey      []byte
	TokenTTL             time.Duration
	PasswordPattern      string
	PasswordMessage      string
	AdminEmail           string
	AdminPassword        string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RateLimitRPM         int
	LockoutAttempts      int
	LockoutWindow        time.Duration
	TelemetryEndpoint    string
	TelemetryInsecure    bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		ServiceName:          getEnv("SERVICE_NAME", "users-api"),
		TokenTTL:             getDuration("TOKEN_TTL", time.Minute),
		PasswordPattern:      getEnv("PASSWORD_PATTERN", DefaultPasswordPattern),
		PasswordMessage:      getEnv("PASSWORD_MESSAGE", "Password must start with a capital letter and contain a digit"),
		AdminEmail:           getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		LockoutAttempts:      getInt("LOGIN_LOCKOUT_ATTEMPTS", 5),
		LockoutWindow:        getDuration("LOGIN_LOCKOUT_TTL", 5*time.Minute),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	// The signing key is external configuration so issued tokens stay
	// verifiable across process restarts. Development may leave it unset,
	// in which case main generates an ephemeral key and logs a warning.
	key, err := loadSigningKey(cfg.Environment)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenSigningKey = key

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Minute
	}

	return cfg, nil
}

func loadSigningKey(environment string) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv("TOKEN_SIGNING_KEY"))
	if raw == "" {
		if environment == "development" {
			return nil, nil
		}
		return nil, fmt.Errorf("TOKEN_SIGNING_KEY is required outside development")
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil && len(decoded) >= 32 {
		return decoded, nil
	}
	if len(raw) < 32 {
		return nil, fmt.Errorf("TOKEN_SIGNING_KEY must be at least 32 bytes")
	}
	return []byte(raw), nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
