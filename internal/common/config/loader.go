package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// registerDefaults makes every key known to viper so environment overrides
// such as CLASSIFICATION_MAX_CONCURRENT apply even without a config file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "review-sentiment")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 120000)
	v.SetDefault("server.shutdown_timeout", 10000)

	v.SetDefault("analysis.review_count", 100)
	v.SetDefault("analysis.sample_size", 5)
	v.SetDefault("analysis.cache_ttl", 180000)
	v.SetDefault("analysis.dedupe_concurrent_misses", false)
	v.SetDefault("analysis.min_search_query_length", 2)

	v.SetDefault("classification.provider", ProviderHuggingFace)
	v.SetDefault("classification.max_concurrent", 5)
	v.SetDefault("classification.rate_per_second", 10)
	v.SetDefault("classification.burst", 1)
	v.SetDefault("classification.call_timeout", 30000)

	v.SetDefault("catalog.base_url", "http://localhost:3100")
	v.SetDefault("catalog.language", "en")
	v.SetDefault("catalog.country", "us")
	v.SetDefault("catalog.timeout", 15000)
	v.SetDefault("catalog.max_retries", 2)
	v.SetDefault("catalog.breaker.max_failures", 5)
	v.SetDefault("catalog.breaker.open_interval", 30000)

	v.SetDefault("apis.huggingface.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("apis.huggingface.api_key", "")
	v.SetDefault("apis.huggingface.model", "distilbert-base-uncased-finetuned-sst-2-english")
	v.SetDefault("apis.huggingface.timeout", 20000)
	v.SetDefault("apis.gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("apis.gemini.api_key", "")
	v.SetDefault("apis.gemini.model", "gemini-pro")
	v.SetDefault("apis.gemini.timeout", 20000)

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.key_prefix", "analysis:")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("database.redis.pool_size", 10)
	v.SetDefault("database.redis.dial_timeout", 5000)

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "localhost:26500")
	v.SetDefault("camunda.max_jobs_active", 5)
	v.SetDefault("camunda.timeout", 300000)
	v.SetDefault("camunda.request_timeout", 30000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults repairs zero values a config file may have set explicitly.
func applyDefaults(cfg *Config) {
	if cfg.Analysis.ReviewCount <= 0 {
		cfg.Analysis.ReviewCount = 100
	}
	if cfg.Analysis.SampleSize <= 0 {
		cfg.Analysis.SampleSize = 5
	}
	if cfg.Analysis.CacheTTL <= 0 {
		cfg.Analysis.CacheTTL = 180000
	}
	if cfg.Analysis.MinSearchQueryLength <= 0 {
		cfg.Analysis.MinSearchQueryLength = 2
	}
	if cfg.Classification.Burst <= 0 {
		cfg.Classification.Burst = 1
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 15000
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	cfg.Classification.Provider = strings.ToLower(strings.TrimSpace(cfg.Classification.Provider))
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
}

// overrideEmptyConfig honours the plain environment names used by the
// deployment scripts (GEMINI_API_KEY, PORT, ALLOWED_ORIGINS, ...).
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.Gemini.APIKey == "" {
		cfg.APIs.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIs.HuggingFace.APIKey == "" {
		cfg.APIs.HuggingFace.APIKey = os.Getenv("HF_API_TOKEN")
	}
	if val := os.Getenv("HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("DEBUG"); val != "" {
		cfg.Server.Debug = strings.EqualFold(val, "true")
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(val, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Classification.MaxConcurrent <= 0 {
		return fmt.Errorf("classification.max_concurrent must be positive")
	}
	if cfg.Classification.RatePerSecond <= 0 {
		return fmt.Errorf("classification.rate_per_second must be positive")
	}
	if cfg.Classification.Burst != 1 {
		return fmt.Errorf("classification.burst must be 1, got %d", cfg.Classification.Burst)
	}
	if cfg.Classification.CallTimeout < 0 {
		return fmt.Errorf("classification.call_timeout must not be negative")
	}

	switch cfg.Classification.Provider {
	case ProviderHuggingFace:
		if cfg.APIs.HuggingFace.BaseURL == "" || cfg.APIs.HuggingFace.Model == "" {
			return fmt.Errorf("apis.huggingface.base_url and model are required")
		}
	case ProviderGemini:
		if cfg.APIs.Gemini.BaseURL == "" || cfg.APIs.Gemini.Model == "" {
			return fmt.Errorf("apis.gemini.base_url and model are required")
		}
	default:
		return fmt.Errorf("unknown classification.provider %q", cfg.Classification.Provider)
	}

	if cfg.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if cfg.Catalog.MaxRetries < 0 {
		return fmt.Errorf("catalog.max_retries must not be negative")
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", cfg.Cache.Backend)
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	return nil
}
