// ==============================================================================
// CONFIG PACKAGE - pkg/config/config.go
// ==============================================================================
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Link       LinkConfig
	Email      EmailConfig
	Gateways   GatewayConfig
	Extraction ExtractionConfig
	OTP        OTPConfig
	Upload     UploadConfig
	Session    SessionConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// LinkConfig controls invitation link signing.
type LinkConfig struct {
	BaseURL    string
	Secret     string
	Expiration time.Duration
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool
}

// GatewayConfig holds the endpoints and credentials of the remote services
// the wizard orchestrates. None of them are implemented here.
type GatewayConfig struct {
	EmployeeAPIURL     string
	OrderAPIURL        string
	OrderAPIToken      string
	TokenAPIURL        string
	RegistrationAPIURL string
	ExtractionAPIURL   string
	ExtractionJobURL   string
	ExtractionAPIToken string
	RequestTimeout     time.Duration
}

// ExtractionConfig bounds the poll loop. MaxAttempts/MaxElapsed of zero mean
// the poll retries indefinitely.
type ExtractionConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	MaxElapsed   time.Duration
	RenderDPI    int
	RenderPages  int
}

type OTPConfig struct {
	DevCode    string
	RemoteCode string
	Expiration time.Duration
}

type UploadConfig struct {
	MaxFileSizeMB int64
	MinFileSizeKB int64
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "localhost:6379")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Link: LinkConfig{
			BaseURL:    getEnv("INVITE_LINK_BASE_URL", "http://localhost:4200/register-provider"),
			Secret:     getEnv("INVITE_LINK_SECRET", "change-this-secret"),
			Expiration: getDurationEnv("INVITE_LINK_EXPIRATION", 72*time.Hour),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:     getEnv("SMTP_FROM", ""),
			SMTPUseTLS:   getBoolEnv("SMTP_USE_TLS", true),
		},
		Gateways: GatewayConfig{
			EmployeeAPIURL:     getEnv("EMPLOYEE_API_URL", ""),
			OrderAPIURL:        getEnv("ORDER_API_URL", ""),
			OrderAPIToken:      getEnv("ORDER_API_TOKEN", ""),
			TokenAPIURL:        getEnv("TOKEN_API_URL", ""),
			RegistrationAPIURL: getEnv("REGISTRATION_API_URL", ""),
			ExtractionAPIURL:   getEnv("EXTRACTION_API_URL", ""),
			ExtractionJobURL:   getEnv("EXTRACTION_JOB_URL", ""),
			ExtractionAPIToken: getEnv("EXTRACTION_API_TOKEN", ""),
			RequestTimeout:     getDurationEnv("GATEWAY_REQUEST_TIMEOUT", 30*time.Second),
		},
		Extraction: ExtractionConfig{
			PollInterval: getDurationEnv("EXTRACTION_POLL_INTERVAL", 4*time.Second),
			MaxAttempts:  getIntEnv("EXTRACTION_MAX_ATTEMPTS", 0),
			MaxElapsed:   getDurationEnv("EXTRACTION_MAX_ELAPSED", 0),
			RenderDPI:    getIntEnv("EXTRACTION_RENDER_DPI", 200),
			RenderPages:  getIntEnv("EXTRACTION_RENDER_PAGES", 1),
		},
		OTP: OTPConfig{
			DevCode:    getEnv("OTP_DEV_CODE", ""),
			RemoteCode: getEnv("OTP_REMOTE_CODE", "123456"),
			Expiration: getDurationEnv("OTP_EXPIRATION", 10*time.Minute),
		},
		Upload: UploadConfig{
			MaxFileSizeMB: int64(getIntEnv("UPLOAD_MAX_FILE_SIZE_MB", 10)),
			MinFileSizeKB: int64(getIntEnv("UPLOAD_MIN_FILE_SIZE_KB", 1)),
		},
		Session: SessionConfig{
			TTL:             getDurationEnv("SESSION_TTL", 2*time.Hour),
			CleanupInterval: getDurationEnv("SESSION_CLEANUP_INTERVAL", 5*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// or redis+tls:// scheme if present
	if strings.HasPrefix(url, "redis+tls://") {
		return url[len("redis+tls://"):]
	}
	if strings.HasPrefix(url, "redis://") {
		return url[len("redis://"):]
	}
	return url
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}
