package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Story providers.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"logLevel"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	TrustedProxies []string `yaml:"trustedProxyCIDRs"`

	StorageBackend string `yaml:"storageBackend"`
	SQLitePath     string `yaml:"sqlitePath"`
	DatabaseURL    string `yaml:"databaseURL"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`
	RedisKeyPrefix string `yaml:"redisKeyPrefix"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
	MaxVideoBytes  int64  `yaml:"maxVideoBytes"`

	StoryProvider string `yaml:"storyProvider"`
	StoryBaseURL  string `yaml:"storyBaseURL"`
	StoryAPIKey   string `yaml:"storyAPIKey"`
	StoryModel    string `yaml:"storyModel"`

	ElevenLabsAPIKey  string `yaml:"elevenLabsAPIKey"`
	ElevenLabsBaseURL string `yaml:"elevenLabsBaseURL"`

	DreamRateLimitPerMinute     int `yaml:"dreamRateLimitPerMinute"`
	NarrationRateLimitPerMinute int `yaml:"narrationRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml), applies environment
// overrides and defaults, then validates.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString := func(env string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	setString("PORT", &cfg.Port)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("DREAMWEAVER_STORAGE_BACKEND", &cfg.StorageBackend)
	setString("DREAMWEAVER_SQLITE_PATH", &cfg.SQLitePath)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.RedisPassword)
	setString("MINIO_ENDPOINT", &cfg.MinioEndpoint)
	setString("MINIO_ACCESS_KEY", &cfg.MinioAccessKey)
	setString("MINIO_SECRET_KEY", &cfg.MinioSecretKey)
	setString("MINIO_BUCKET", &cfg.MinioBucket)
	setString("DREAMWEAVER_STORY_PROVIDER", &cfg.StoryProvider)
	setString("DREAMWEAVER_STORY_MODEL", &cfg.StoryModel)
	setString("ELEVENLABS_API_KEY", &cfg.ElevenLabsAPIKey)

	// The key matching the provider wins over the generic one.
	setString("DREAMWEAVER_STORY_API_KEY", &cfg.StoryAPIKey)
	switch strings.ToLower(cfg.StoryProvider) {
	case "", ProviderGroq:
		setString("GROQ_API_KEY", &cfg.StoryAPIKey)
	case ProviderOpenAI:
		setString("OPENAI_API_KEY", &cfg.StoryAPIKey)
	case ProviderGemini:
		setString("GEMINI_API_KEY", &cfg.StoryAPIKey)
	}

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("DREAMWEAVER_MAX_VIDEO_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxVideoBytes = n
		}
	}
	if v := os.Getenv("DREAMWEAVER_DREAM_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.DreamRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("DREAMWEAVER_NARRATION_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.NarrationRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("DREAMWEAVER_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("DREAMWEAVER_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "sqlite"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "data/dreamweaver.db"
	}
	cfg.StoryProvider = strings.ToLower(strings.TrimSpace(cfg.StoryProvider))
	if cfg.StoryProvider == "" {
		cfg.StoryProvider = ProviderGroq
	}
	if cfg.MaxVideoBytes == 0 {
		cfg.MaxVideoBytes = 50 << 20
	}
	if cfg.DreamRateLimitPerMinute == 0 {
		cfg.DreamRateLimitPerMinute = 10
	}
	if cfg.NarrationRateLimitPerMinute == 0 {
		cfg.NarrationRateLimitPerMinute = 20
	}
}

// ObjectStorageEnabled reports whether override videos go to MinIO.
func (c FileConfig) ObjectStorageEnabled() bool {
	return c.MinioEndpoint != ""
}

func validateConfig(cfg FileConfig) error {
	switch cfg.StorageBackend {
	case "sqlite", "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis backend (set in config.yaml or REDIS_ADDR)")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres backend (set in config.yaml or DATABASE_URL)")
		}
	default:
		return fmt.Errorf("config: unknown storageBackend %q (sqlite, redis, postgres, memory)", cfg.StorageBackend)
	}
	switch cfg.StoryProvider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
		if cfg.StoryAPIKey == "" {
			return fmt.Errorf("config: storyAPIKey is required for %s (set in config.yaml or %s)", cfg.StoryProvider, storyKeyEnv(cfg.StoryProvider))
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("config: unknown storyProvider %q (groq, openai, gemini, ollama)", cfg.StoryProvider)
	}
	if cfg.ObjectStorageEnabled() && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "") {
		return errors.New("config: minioAccessKey, minioSecretKey and minioBucket are required when minioEndpoint is set")
	}
	if cfg.MaxVideoBytes < 0 {
		return errors.New("config: maxVideoBytes must be positive")
	}
	if cfg.DreamRateLimitPerMinute < 0 || cfg.NarrationRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

func storyKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
