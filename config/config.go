package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultModel is used when a chat request does not name a model.
const DefaultModel = "openai/gpt-oss-20b:free"

// Config holds the application's configuration
type Config struct {
	OpenRouterAPIKey        string        `mapstructure:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL       string        `mapstructure:"OPENROUTER_BASE_URL"`
	UploadDir               string        `mapstructure:"UPLOAD_DIR"`
	AllowedExtensions       []string      `mapstructure:"ALLOWED_EXTENSIONS"`
	DefaultModel            string        `mapstructure:"DEFAULT_MODEL"`
	MaxContentLength        int           `mapstructure:"MAX_CONTENT_LENGTH"`
	MaxTokens               int           `mapstructure:"MAX_TOKENS"`
	Temperature             float64       `mapstructure:"TEMPERATURE"`
	LLMRequestTimeout       time.Duration `mapstructure:"LLM_REQUEST_TIMEOUT"`
	ModelsRequestTimeout    time.Duration `mapstructure:"MODELS_REQUEST_TIMEOUT"`
	ModelsCacheTTL          time.Duration `mapstructure:"MODELS_CACHE_TTL"`
	MaxUploadSizeMB         int64         `mapstructure:"MAX_UPLOAD_SIZE_MB"`
	WebPort                 int           `mapstructure:"WEB_PORT"`
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL             string        `mapstructure:"DATABASE_URL"`
	StoreCapacity           int           `mapstructure:"STORE_CAPACITY"`
	CleanupEnabled          bool          `mapstructure:"CLEANUP_ENABLED"`
	CleanupInterval         time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	StoreRetentionAge       time.Duration `mapstructure:"STORE_RETENTION_AGE"`
	RateLimitMessagesPerMin int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitFilesPerHour   int           `mapstructure:"RATE_LIMIT_FILES_PER_HOUR"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	Renderer                string        `mapstructure:"RENDERER"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("OPENROUTER_API_KEY", "")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("ALLOWED_EXTENSIONS", []string{".pdf", ".txt", ".md"})
	v.SetDefault("DEFAULT_MODEL", DefaultModel)
	v.SetDefault("MAX_CONTENT_LENGTH", 10000)
	v.SetDefault("MAX_TOKENS", 2000)
	v.SetDefault("TEMPERATURE", 0.1)
	v.SetDefault("LLM_REQUEST_TIMEOUT", 120)
	v.SetDefault("MODELS_REQUEST_TIMEOUT", 10)
	v.SetDefault("MODELS_CACHE_TTL", 300)
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 20)
	v.SetDefault("WEB_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_CAPACITY", 256)
	v.SetDefault("CLEANUP_ENABLED", true)
	v.SetDefault("CLEANUP_INTERVAL", 1)
	v.SetDefault("STORE_RETENTION_AGE", 24)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_FILES_PER_HOUR", 10)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
	v.SetDefault("RENDERER", "dialect")
}

// Load reads .env, config.yaml and the environment into a Config.
func Load(logger *zap.Logger) *Config {
	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from docker subdir
	v.AddConfigPath("./config") // Common config folder
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// FromViper decodes and normalizes a Config from an already populated viper
// instance. Defaults are applied for keys the instance does not know.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(config.AllowedExtensions))
	for _, ext := range config.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cleaned = append(cleaned, ext)
	}
	if len(cleaned) == 0 {
		cleaned = []string{".pdf", ".txt", ".md"}
	}
	config.AllowedExtensions = cleaned

	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}
	if config.StoreCapacity <= 0 {
		config.StoreCapacity = 256
	}

	// Convert seconds/hours to proper time.Duration
	config.LLMRequestTimeout = config.LLMRequestTimeout * time.Second
	config.ModelsRequestTimeout = config.ModelsRequestTimeout * time.Second
	config.ModelsCacheTTL = config.ModelsCacheTTL * time.Second
	config.CleanupInterval = config.CleanupInterval * time.Hour
	config.StoreRetentionAge = config.StoreRetentionAge * time.Hour

	return &config, nil
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}
