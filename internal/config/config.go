// Load .env, optional YAML file, env overrides, defaults, validation.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Port              string `yaml:"port" validate:"required,numeric"`
	APIBaseURL        string `yaml:"api_base_url" validate:"required,url"`
	CognitoUserPoolID string `yaml:"cognito_user_pool_id" validate:"required,contains=_"`
	CognitoClientID   string `yaml:"cognito_client_id" validate:"required"`

	// Sessions live in Postgres when DatabaseURL is set, otherwise in SessionDir.
	DatabaseURL    string   `yaml:"database_url"`
	SessionDir     string   `yaml:"session_dir"`
	AllowedOrigins []string `yaml:"cors_allowed_origins" validate:"dive,url"`
	SecureCookies  bool     `yaml:"secure_cookies"`
	// Sessions untouched for longer than SessionTTL are pruned.
	SessionTTL time.Duration `yaml:"session_ttl" validate:"gte=0"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	// Mail sync only
	GmailCredentialsFile string        `yaml:"gmail_credentials_file"`
	GmailTokenFile       string        `yaml:"gmail_token_file"`
	SyncEmail            string        `yaml:"sync_email"`
	SyncPassword         string        `yaml:"sync_password"`
	SyncInterval         time.Duration `yaml:"sync_interval"`
}

// Load reads configuration from path (skipped if missing) and the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	// .env is optional, but one that exists must parse.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.APIBaseURL, "API_BASE_URL")
	setString(&c.CognitoUserPoolID, "COGNITO_USER_POOL_ID")
	setString(&c.CognitoClientID, "COGNITO_CLIENT_ID")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.SessionDir, "SESSION_DIR")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.GmailCredentialsFile, "GMAIL_CREDENTIALS_FILE")
	setString(&c.GmailTokenFile, "GMAIL_TOKEN_FILE")
	setString(&c.SyncEmail, "SYNC_EMAIL")
	setString(&c.SyncPassword, "SYNC_PASSWORD")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIES: %w", err)
		}
		c.SecureCookies = b
	}
	if err := setDuration(&c.SyncInterval, "SYNC_INTERVAL"); err != nil {
		return err
	}
	return setDuration(&c.SessionTTL, "SESSION_TTL")
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.SessionDir == "" {
		c.SessionDir = ".sessions"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.5-flash"
	}
	if c.GmailCredentialsFile == "" {
		c.GmailCredentialsFile = "credential.json"
	}
	if c.GmailTokenFile == "" {
		c.GmailTokenFile = "token.json"
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = 15 * time.Minute
	}
	// Cognito ID tokens last an hour.
	if c.SessionTTL == 0 {
		c.SessionTTL = time.Hour
	}
}

// Region is the AWS region encoded in the user pool id ("us-east-1_AbC123" -> "us-east-1").
func (c *Config) Region() string {
	region, _, _ := strings.Cut(c.CognitoUserPoolID, "_")
	return region
}

// LLMEnabled reports whether posting extraction and mail analysis can run.
func (c *Config) LLMEnabled() bool {
	return c.GeminiAPIKey != ""
}

// ValidateMailSync checks the settings only cmd/mailsync needs.
func (c *Config) ValidateMailSync() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.SyncEmail == "" {
		missing = append(missing, "SYNC_EMAIL")
	}
	if c.SyncPassword == "" {
		missing = append(missing, "SYNC_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("mail sync requires %s", strings.Join(missing, ", "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
