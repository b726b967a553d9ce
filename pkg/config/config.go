package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment          string
	ServerHost           string
	ServerPort           int
	LogLevel             string
	JWTSecret            string
	TokenIssuer          string
	SessionTTL           time.Duration
	CookieSecure         bool
	TLSCertPath          string
	TLSKeyPath           string
	PostgresHost         string
	PostgresPort         int
	PostgresUser         string
	PostgresPassword     string
	PostgresDatabase     string
	PostgresSSLMode      string
	RedisURL             string
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	LoginRateLimitMax    int
	CORSAllowedOrigins   []string
	Providers            []string
	MetricsInterval      time.Duration
	EmployeeSeedPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8443"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	rateWindowMinutes, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_MINUTES: %w", err)
	}

	rateMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX_REQUESTS: %w", err)
	}

	loginRateMax, err := strconv.Atoi(getEnv("LOGIN_RATE_LIMIT_MAX_REQUESTS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_RATE_LIMIT_MAX_REQUESTS: %w", err)
	}

	sessionHours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_HOURS: %w", err)
	}

	metricsIntervalSeconds, err := strconv.Atoi(getEnv("METRICS_REFRESH_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_REFRESH_SECONDS: %w", err)
	}

	environment := getEnv("ENVIRONMENT", "development")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET: set it in the environment")
	}

	return &Config{
		Environment:          environment,
		ServerHost:           getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:           port,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		JWTSecret:            jwtSecret,
		TokenIssuer:          getEnv("TOKEN_ISSUER", "secure-payments"),
		SessionTTL:           time.Duration(sessionHours) * time.Hour,
		CookieSecure:         environment == "production",
		TLSCertPath:          getEnv("TLS_CERT_PATH", ""),
		TLSKeyPath:           getEnv("TLS_KEY_PATH", ""),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         pgPort,
		PostgresUser:         getEnv("POSTGRES_USER", "securepay"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "dev"),
		PostgresDatabase:     getEnv("POSTGRES_DB", "securepay"),
		PostgresSSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
		RateLimitWindow:      time.Duration(rateWindowMinutes) * time.Minute,
		RateLimitMaxRequests: rateMax,
		LoginRateLimitMax:    loginRateMax,
		CORSAllowedOrigins:   parseCSVEnv("ALLOWED_ORIGINS", []string{"https://localhost:5173"}),
		Providers:            parseCSVEnv("PAYMENT_PROVIDERS", []string{"SWIFT", "SEPA", "FEDWIRE"}),
		MetricsInterval:      time.Duration(metricsIntervalSeconds) * time.Second,
		EmployeeSeedPassword: getEnv("EMPLOYEE_SEED_PASSWORD", "ChangeMe!Dev0nly."),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
