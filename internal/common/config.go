package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/growthops/adpulse/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Server       ServerConfig       `toml:"server"`
	Storage      StorageConfig      `toml:"storage"`
	Cache        CacheConfig        `toml:"cache"`
	Logging      LoggingConfig      `toml:"logging"`
	Claude       ClaudeConfig       `toml:"claude"`
	Gemini       GeminiConfig       `toml:"gemini"`
	LLM          LLMConfig          `toml:"llm"`
	MetaAds      MetaAdsConfig      `toml:"meta_ads"`
	TrafficIntel TrafficIntelConfig `toml:"traffic_intel"`
	Alerts       AlertsConfig       `toml:"alerts"`
	Reports      ReportsConfig      `toml:"reports"`
	Scheduler    SchedulerConfig    `toml:"scheduler"`
	Queue        QueueConfig        `toml:"queue"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CacheConfig controls the report snapshot cache
type CacheConfig struct {
	Path       string `toml:"path"` // Cache database directory path
	TTLSeconds int    `toml:"ttl_seconds"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Default model for Claude calls
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2000)
	Temperature float32 `toml:"temperature"` // Completion temperature
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls as duration string
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Default model for Gemini calls
	Temperature float32 `toml:"temperature"` // Completion temperature
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between calls as duration string
	Timeout     string  `toml:"timeout"`     // Per-call timeout as duration string
}

// LLMConfig contains provider selection configuration
type LLMConfig struct {
	DefaultProvider string            `toml:"default_provider"` // "claude" or "gemini"
	TaskProviders   map[string]string `toml:"task_providers"`   // Per-task provider overrides
}

// MetaAdsConfig contains the ads-performance data source configuration
type MetaAdsConfig struct {
	Token   string `toml:"token"`    // Bearer token for the insights API
	BaseURL string `toml:"base_url"` // Insights API base URL
	Timeout string `toml:"timeout"`  // HTTP timeout as duration string
}

// TrafficIntelConfig contains the competitor/traffic data source configuration
type TrafficIntelConfig struct {
	APIKey  string `toml:"api_key"` // Data source API key
	Host    string `toml:"host"`    // Data source host, e.g. "traffic-api.example.com"
	Timeout string `toml:"timeout"` // HTTP timeout as duration string
}

// AlertsConfig contains alert notification configuration
type AlertsConfig struct {
	WebhookURL string `toml:"webhook_url"` // Webhook for alert delivery (empty disables delivery)
}

// ReportsConfig contains report pipeline configuration
type ReportsConfig struct {
	BucketPath       string `toml:"bucket_path"`       // Artifact storage root path
	DefaultAccountID string `toml:"default_account"`   // Account refreshed by the hourly schedule
	DefaultDomain    string `toml:"default_domain"`    // Domain analysed for the default account
	DefaultTimeframe string `toml:"default_timeframe"` // Timeframe label for scheduled refreshes
}

// SchedulerConfig contains cron refresh configuration
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule for the default account refresh
}

// QueueConfig contains refresh queue configuration
type QueueConfig struct {
	Workers    int `toml:"workers"`     // Number of concurrent refresh workers
	BufferSize int `toml:"buffer_size"` // Per-lane queue buffer size
}

// NewDefaultConfig returns the built-in default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/store",
			},
		},
		Cache: CacheConfig{
			Path:       "./data/cache",
			TTLSeconds: 3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Claude: ClaudeConfig{
			Model:       "claude-3-5-sonnet-20240620",
			MaxTokens:   2000,
			Temperature: 0.7,
			RateLimit:   "1s",
			Timeout:     "30s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-1.5-pro",
			Temperature: 0.7,
			RateLimit:   "4s",
			Timeout:     "30s",
		},
		LLM: LLMConfig{
			DefaultProvider: "claude",
		},
		MetaAds: MetaAdsConfig{
			BaseURL: "https://graph.facebook.com/v18.0",
			Timeout: "30s",
		},
		TrafficIntel: TrafficIntelConfig{
			Timeout: "30s",
		},
		Reports: ReportsConfig{
			BucketPath:       "./data/reports",
			DefaultAccountID: "123456789",
			DefaultDomain:    "example.com",
			DefaultTimeframe: "last_7d",
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 * * * *", // Top of every hour
		},
		Queue: QueueConfig{
			Workers:    2,
			BufferSize: 64,
		},
	}
}

// LoadFromFile loads configuration from a single optional file
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADPULSE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("ADPULSE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ADPULSE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("ADPULSE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if cachePath := os.Getenv("ADPULSE_CACHE_PATH"); cachePath != "" {
		config.Cache.Path = cachePath
	}

	if level := os.Getenv("ADPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("ADPULSE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if provider := os.Getenv("ADPULSE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}
	if model := os.Getenv("ADPULSE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("ADPULSE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if token := os.Getenv("ADPULSE_META_ADS_TOKEN"); token != "" {
		config.MetaAds.Token = token
	}
	if baseURL := os.Getenv("ADPULSE_META_ADS_BASE_URL"); baseURL != "" {
		config.MetaAds.BaseURL = baseURL
	}
	if apiKey := os.Getenv("ADPULSE_TRAFFIC_INTEL_API_KEY"); apiKey != "" {
		config.TrafficIntel.APIKey = apiKey
	}
	if host := os.Getenv("ADPULSE_TRAFFIC_INTEL_HOST"); host != "" {
		config.TrafficIntel.Host = host
	}

	if webhook := os.Getenv("ADPULSE_ALERT_WEBHOOK_URL"); webhook != "" {
		config.Alerts.WebhookURL = webhook
	}
	if bucket := os.Getenv("ADPULSE_REPORT_BUCKET_PATH"); bucket != "" {
		config.Reports.BucketPath = bucket
	}

	if schedule := os.Getenv("ADPULSE_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if enabled := os.Getenv("ADPULSE_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if workers := os.Getenv("ADPULSE_QUEUE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Queue.Workers = w
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key with priority: environment > KV store > config fallback.
// Key names: "anthropic_api_key", "gemini_api_key", "traffic_intel_api_key", "meta_ads_token".
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"anthropic_api_key":     {"ADPULSE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini_api_key":        {"ADPULSE_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"traffic_intel_api_key": {"ADPULSE_TRAFFIC_INTEL_API_KEY"},
		"meta_ads_token":        {"ADPULSE_META_ADS_TOKEN"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// ParseDuration parses a duration string, returning the fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// ValidateSchedule validates a cron schedule expression
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule cannot be empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// IsProduction returns true when the environment is configured as production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}
