package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chat-server/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported generation backends.
const (
	AIClientOpenAI    = "openai"
	AIClientOllama    = "ollama"
	AIClientAnthropic = "anthropic"
)

const defaultAnthropicMaxTokens = 1024

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	// Generation backend
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL     string        `envconfig:"AI_BASE_URL"` // empty: backend default
	AIModel       string        `envconfig:"AI_MODEL"`    // empty: backend default
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AITemperature *float64      `envconfig:"AI_TEMPERATURE"` // 0 is not sent by the openai backend
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"0"`
	// secret, no envconfig tag
	AIAPIKey string `ignored:"true"`

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Rate limiting, 0 disables it
	RateLimitPerMinute uint   `envconfig:"RATE_LIMIT_PER_MINUTE" default:"0"`
	RedisAddr          string `envconfig:"REDIS_ADDR"` // empty: in-memory store
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	// secret, no envconfig tag
	RedisPassword string `ignored:"true"`

	// Optional bearer auth on chat routes. Empty means anonymous access.
	JWTSecret string `ignored:"true"`
}

// GetAllowedOrigins splits CORSAllowedOrigins into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// AuthEnabled reports whether chat routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// LoadConfig loads configuration from an optional .env file, environment
// variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	cfg.AIClientType = strings.ToLower(strings.TrimSpace(cfg.AIClientType))

	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}
	cfg.applyBackendDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadSecrets() error {
	apiKey, err := utils.ReadSecretOrEnv("ai_api_key", "AI_API_KEY")
	switch {
	case err == nil:
		c.AIAPIKey = apiKey
	case c.AIClientType == AIClientOllama:
		// local ollama needs no key
	default:
		return fmt.Errorf("ai api key is required for %s backend: %w", c.AIClientType, err)
	}

	if secret, err := utils.ReadSecretOrEnv("chat_jwt_secret", "CHAT_JWT_SECRET"); err == nil {
		c.JWTSecret = secret
	}
	if pass, err := utils.ReadSecretOrEnv("redis_password", "REDIS_PASSWORD"); err == nil {
		c.RedisPassword = pass
	}
	return nil
}

func (c *Config) applyBackendDefaults() {
	switch c.AIClientType {
	case AIClientOpenAI:
		if c.AIModel == "" {
			c.AIModel = "gpt-4o-mini"
		}
	case AIClientOllama:
		if c.AIBaseURL == "" {
			c.AIBaseURL = "http://localhost:11434"
		}
		if c.AIModel == "" {
			c.AIModel = "llama3.2"
		}
	case AIClientAnthropic:
		if c.AIModel == "" {
			c.AIModel = "claude-3-5-haiku-latest"
		}
		if c.AIMaxTokens <= 0 {
			c.AIMaxTokens = defaultAnthropicMaxTokens
		}
	}
}

// Validate checks settings that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.AIClientType {
	case AIClientOpenAI, AIClientOllama, AIClientAnthropic:
	default:
		return fmt.Errorf("unknown AI_CLIENT_TYPE '%s'", c.AIClientType)
	}
	if c.AITimeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if c.AIMaxTokens < 0 {
		return errors.New("AI_MAX_TOKENS must not be negative")
	}
	return nil
}

// LogSummary prints the effective configuration with secrets masked.
func (c *Config) LogSummary(logf func(format string, args ...interface{})) {
	logf("Configuration loaded:")
	logf("  Env: %s, LogLevel: %s, Port: %s", c.Env, c.LogLevel, c.ServerPort)
	logf("  AI backend: %s, Model: %s, BaseURL: %s, Timeout: %v", c.AIClientType, c.AIModel, c.AIBaseURL, c.AITimeout)
	logf("  AI API Key: %s", maskSecret(c.AIAPIKey))
	logf("  CORS origins: %v", c.GetAllowedOrigins())
	logf("  Rate limit per minute: %d, Redis: %s", c.RateLimitPerMinute, c.RedisAddr)
	logf("  Chat auth enabled: %t", c.AuthEnabled())
}

func maskSecret(s string) string {
	if s == "" {
		return "[NOT SET]"
	}
	return "[LOADED]"
}
