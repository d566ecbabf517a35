package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"safeguard/internal/validation"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string // sqlite, postgres or mysql
	DatabasePath string
	DatabaseURL  string

	LogLevel  string
	LogFormat string

	// Classification data
	LexiconPath   string
	ToxicTermsURL string

	// Engine tuning
	DedupWindow          time.Duration
	ProfileThresholdDays int
	EmojiThreshold       int
	RemoteTimeout        time.Duration
	MetadataTimeout      time.Duration
	RemoteFailureMode    string

	// Remote comment classifier
	GeminiAPIKey    string
	GeminiModel     string
	RemoteRateLimit float64 // requests per second
	RemoteBurst     int

	// Video metadata
	YouTubeAPIKey string
	YouTubeUseADC bool

	// API protection
	APITokenSecret     string
	RateLimitPerMinute int

	// Weekly digest
	AWSRegion        string
	SESFromEmail     string
	DigestSchedule   string
	DigestRecipients []DigestRecipient
}

// DigestRecipient is a guardian receiving the weekly digest for one child
type DigestRecipient struct {
	ChildID string `yaml:"child_id"`
	Email   string `yaml:"email"`
	Name    string `yaml:"name"`
}

// fileConfig is the layout of the optional CONFIG_FILE
type fileConfig struct {
	Digest struct {
		Schedule   string            `yaml:"schedule"`
		Recipients []DigestRecipient `yaml:"recipients"`
	} `yaml:"digest"`
}

// Load reads configuration from a .env file, environment variables and the
// optional YAML file named by CONFIG_FILE
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables still apply
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./safeguard.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LexiconPath:   getEnv("LEXICON_PATH", ""),
		ToxicTermsURL: getEnv("TOXIC_TERMS_URL", ""),

		DedupWindow:          getEnvDuration("DEDUP_WINDOW", time.Hour),
		ProfileThresholdDays: getEnvInt("PROFILE_THRESHOLD_DAYS", 7),
		EmojiThreshold:       getEnvInt("EMOJI_THRESHOLD", 3),
		RemoteTimeout:        getEnvDuration("REMOTE_TIMEOUT", 5*time.Second),
		MetadataTimeout:      getEnvDuration("METADATA_TIMEOUT", 10*time.Second),
		RemoteFailureMode:    getEnv("REMOTE_FAILURE_MODE", "open"),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		RemoteRateLimit: getEnvFloat("REMOTE_RATE_LIMIT", 5),
		RemoteBurst:     getEnvInt("REMOTE_BURST", 10),

		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		YouTubeUseADC: getEnvBool("YOUTUBE_USE_ADC", false),

		APITokenSecret:     getEnv("API_TOKEN_SECRET", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 600),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 0 8 * * MON"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays settings from a YAML file
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return c.applyFile(data)
}

func (c *Config) applyFile(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if fc.Digest.Schedule != "" {
		c.DigestSchedule = fc.Digest.Schedule
	}
	c.DigestRecipients = append(c.DigestRecipients, fc.Digest.Recipients...)
	return nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_TYPE %q", c.DatabaseType))
	}

	if c.DedupWindow <= 0 {
		errs = append(errs, errors.New("DEDUP_WINDOW must be positive"))
	}
	if c.ProfileThresholdDays <= 0 {
		errs = append(errs, errors.New("PROFILE_THRESHOLD_DAYS must be positive"))
	}
	if c.EmojiThreshold <= 0 {
		errs = append(errs, errors.New("EMOJI_THRESHOLD must be positive"))
	}
	if c.RemoteTimeout <= 0 || c.MetadataTimeout <= 0 {
		errs = append(errs, errors.New("REMOTE_TIMEOUT and METADATA_TIMEOUT must be positive"))
	}
	if mode := strings.ToLower(c.RemoteFailureMode); mode != "open" && mode != "review" {
		errs = append(errs, fmt.Errorf("REMOTE_FAILURE_MODE must be open or review, got %q", c.RemoteFailureMode))
	}
	for _, r := range c.DigestRecipients {
		if err := validation.ValidateChildID(r.ChildID); err != nil {
			errs = append(errs, fmt.Errorf("digest recipient: %w", err))
		}
		if err := validation.ValidateEmail(r.Email); err != nil {
			errs = append(errs, fmt.Errorf("digest recipient %s: %w", r.ChildID, err))
		}
	}

	return errors.Join(errs...)
}

// RecipientsFor returns the digest recipients configured for a child
func (c *Config) RecipientsFor(childID string) []DigestRecipient {
	var out []DigestRecipient
	for _, r := range c.DigestRecipients {
		if r.ChildID == childID {
			out = append(out, r)
		}
	}
	return out
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
