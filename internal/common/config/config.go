package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Analysis       AnalysisConfig       `mapstructure:"analysis"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Catalog        CatalogConfig        `mapstructure:"catalog"`
	APIs           APIsConfig           `mapstructure:"apis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Camunda        CamundaConfig        `mapstructure:"camunda"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Debug          bool     `mapstructure:"debug"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownGrace  int      `mapstructure:"shutdown_timeout"` // milliseconds
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AnalysisConfig drives the orchestrator.
type AnalysisConfig struct {
	ReviewCount            int  `mapstructure:"review_count"`
	SampleSize             int  `mapstructure:"sample_size"`
	CacheTTL               int  `mapstructure:"cache_ttl"` // milliseconds
	DedupeConcurrentMisses bool `mapstructure:"dedupe_concurrent_misses"`
	MinSearchQueryLength   int  `mapstructure:"min_search_query_length"`
}

// ClassificationConfig bounds outbound classification calls.
type ClassificationConfig struct {
	Provider      string `mapstructure:"provider"` // huggingface | gemini
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	Burst         int    `mapstructure:"burst"`
	CallTimeout   int    `mapstructure:"call_timeout"` // milliseconds, 0 disables
}

type CatalogConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Language   string `mapstructure:"language"`
	Country    string `mapstructure:"country"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
	Breaker    struct {
		MaxFailures  int `mapstructure:"max_failures"`
		OpenInterval int `mapstructure:"open_interval"` // milliseconds
	} `mapstructure:"breaker"`
}

// APIsConfig holds settings for the classification providers.
type APIsConfig struct {
	HuggingFace struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"huggingface"`

	Gemini struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"gemini"`
}

type CacheConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address     string `mapstructure:"address"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	PoolSize    int    `mapstructure:"pool_size"`
	DialTimeout int    `mapstructure:"dial_timeout"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
