// Package config provides configuration management for the paper discovery service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "DISCOVERY"

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Store backends.
const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// LLM providers. An empty provider disables generated summaries.
const (
	LLMProviderNone      = ""
	LLMProviderOpenAI    = "openai"
	LLMProviderAnthropic = "anthropic"
	LLMProviderGemini    = "gemini"
)

// Config holds all configuration for the paper discovery service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Store selects the paper store backend.
	Store StoreConfig `mapstructure:"store"`
	// Database contains PostgreSQL connection settings, used by the postgres backend.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// LLM contains generative-text client settings for summaries.
	LLM LLMConfig `mapstructure:"llm"`
	// Summary contains summary generation settings.
	Summary SummaryConfig `mapstructure:"summary"`
	// Cache contains the DOI lookup cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Kafka contains discovery event publisher settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Scheduler contains background maintenance job settings.
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP API port (default: 5000).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects and seeds the paper store.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend"`
	// SeedSampleData loads a few sample papers and a recent search at startup.
	SeedSampleData bool `mapstructure:"seed_sample_data"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (loaded from DISCOVERY_DATABASE_PASSWORD).
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 20).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 2).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath overrides the migrations compiled into the binary with a directory.
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun applies pending migrations on startup (default: true).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
	// SlowQueryThreshold logs statements slower than this at warn level. Zero disables it.
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables the metrics server.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// PaperSourcesConfig holds configuration for all paper source APIs.
type PaperSourcesConfig struct {
	// SearchTimeout bounds one fan-out across all sources.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`

	ArXiv         PaperSourceConfig `mapstructure:"arxiv"`
	PubMed        PaperSourceConfig `mapstructure:"pubmed"`
	IEEE          PaperSourceConfig `mapstructure:"ieee"`
	Springer      PaperSourceConfig `mapstructure:"springer"`
	ScienceDirect PaperSourceConfig `mapstructure:"sciencedirect"`
	CrossRef      CrossRefConfig    `mapstructure:"crossref"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g. DISCOVERY_PAPER_SOURCES_IEEE_API_KEY).
	// IEEE, Springer and ScienceDirect serve placeholder papers without one.
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests.
	BurstSize int `mapstructure:"burst_size"`
}

// CrossRefConfig holds DOI resolver settings.
type CrossRefConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Mailto identifies the service to CrossRef's polite pool.
	Mailto    string        `mapstructure:"mailto"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	// MaxRetries applies to 429 and 5xx responses. Search adapters never retry.
	MaxRetries int `mapstructure:"max_retries"`
	// CacheTTL is how long lookups, including misses, stay cached.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LLMConfig holds generative-text client configuration.
type LLMConfig struct {
	// Provider is the LLM provider (openai, anthropic, gemini). Empty disables it.
	Provider string `mapstructure:"provider"`
	// Timeout is the timeout for one LLM API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the LLM temperature setting.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens caps the length of each completion.
	MaxTokens int `mapstructure:"max_tokens"`

	OpenAI    ProviderConfig `mapstructure:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
	Gemini    ProviderConfig `mapstructure:"gemini"`
}

// ProviderConfig holds settings shared by the LLM providers.
type ProviderConfig struct {
	// APIKey is loaded from DISCOVERY_LLM_<PROVIDER>_API_KEY.
	APIKey string `mapstructure:"-"`
	// Model is the model name.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// SummaryConfig holds summary generation settings.
type SummaryConfig struct {
	// GenerationTimeout bounds the three concurrent LLM calls for one paper.
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Enabled switches the DOI lookup cache from no-op to Redis.
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	// Password is loaded from DISCOVERY_CACHE_REDIS_PASSWORD.
	Password    string        `mapstructure:"-"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// KafkaConfig holds discovery event publisher settings.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic receives one message per newly discovered paper.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	// Enabled starts the cron scheduler.
	Enabled bool `mapstructure:"enabled"`
	// RecentSearchRetention is how long recent searches are kept. Zero keeps them forever.
	RecentSearchRetention time.Duration `mapstructure:"recent_search_retention"`
	// RetentionSchedule is the cron spec of the retention job.
	RetentionSchedule string `mapstructure:"retention_schedule"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementCacheCapacity > 0 {
		params.Set("statement_cache_capacity", fmt.Sprintf("%d", c.StatementCacheCapacity))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-discovery-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" so a config file can never carry them.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv(EnvPrefix + "_DATABASE_PASSWORD")
	cfg.Cache.Redis.Password = os.Getenv(EnvPrefix + "_CACHE_REDIS_PASSWORD")

	cfg.LLM.OpenAI.APIKey = os.Getenv(EnvPrefix + "_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv(EnvPrefix + "_LLM_ANTHROPIC_API_KEY")
	cfg.LLM.Gemini.APIKey = os.Getenv(EnvPrefix + "_LLM_GEMINI_API_KEY")

	cfg.PaperSources.PubMed.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_PUBMED_API_KEY")
	cfg.PaperSources.IEEE.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_IEEE_API_KEY")
	cfg.PaperSources.Springer.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_SPRINGER_API_KEY")
	cfg.PaperSources.ScienceDirect.APIKey = os.Getenv(EnvPrefix + "_PAPER_SOURCES_SCIENCEDIRECT_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 5000)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Store defaults
	v.SetDefault("store.backend", StoreBackendMemory)
	v.SetDefault("store.seed_sample_data", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "discovery")
	v.SetDefault("database.name", "paper_discovery")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_auto_run", true)
	v.SetDefault("database.statement_cache_capacity", 512)
	v.SetDefault("database.slow_query_threshold", "500ms")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "paper_discovery")

	// Paper sources defaults
	v.SetDefault("paper_sources.search_timeout", "30s")

	v.SetDefault("paper_sources.arxiv.enabled", true)
	v.SetDefault("paper_sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("paper_sources.arxiv.timeout", "15s")
	v.SetDefault("paper_sources.arxiv.rate_limit", 3.0) // arXiv recommends max 3 req/sec
	v.SetDefault("paper_sources.arxiv.burst_size", 1)

	v.SetDefault("paper_sources.pubmed.enabled", true)
	v.SetDefault("paper_sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("paper_sources.pubmed.timeout", "15s")
	v.SetDefault("paper_sources.pubmed.rate_limit", 3.0) // NCBI recommends max 3 req/sec without API key
	v.SetDefault("paper_sources.pubmed.burst_size", 1)

	v.SetDefault("paper_sources.ieee.enabled", true)
	v.SetDefault("paper_sources.ieee.base_url", "https://ieeexploreapi.ieee.org/api/v1/search/articles")
	v.SetDefault("paper_sources.ieee.timeout", "15s")
	v.SetDefault("paper_sources.ieee.rate_limit", 5.0)
	v.SetDefault("paper_sources.ieee.burst_size", 2)

	v.SetDefault("paper_sources.springer.enabled", true)
	v.SetDefault("paper_sources.springer.base_url", "https://api.springernature.com/meta/v2/json")
	v.SetDefault("paper_sources.springer.timeout", "15s")
	v.SetDefault("paper_sources.springer.rate_limit", 5.0)
	v.SetDefault("paper_sources.springer.burst_size", 2)

	v.SetDefault("paper_sources.sciencedirect.enabled", true)
	v.SetDefault("paper_sources.sciencedirect.base_url", "https://api.elsevier.com/content/search/sciencedirect")
	v.SetDefault("paper_sources.sciencedirect.timeout", "15s")
	v.SetDefault("paper_sources.sciencedirect.rate_limit", 5.0)
	v.SetDefault("paper_sources.sciencedirect.burst_size", 2)

	v.SetDefault("paper_sources.crossref.base_url", "https://api.crossref.org/works")
	v.SetDefault("paper_sources.crossref.mailto", "")
	v.SetDefault("paper_sources.crossref.timeout", "10s")
	v.SetDefault("paper_sources.crossref.rate_limit", 10.0)
	v.SetDefault("paper_sources.crossref.max_retries", 2)
	v.SetDefault("paper_sources.crossref.cache_ttl", "24h")

	// LLM defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.provider", LLMProviderNone)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1500)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")

	// Summary defaults
	v.SetDefault("summary.generation_timeout", "90s")

	// Cache defaults
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "discovery:")
	v.SetDefault("cache.redis.dial_timeout", "5s")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.paper_discovery.paper_discovered")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.recent_search_retention", "720h")
	v.SetDefault("scheduler.retention_schedule", "@hourly")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.MetricsPort)
	}

	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid store backend: %q", c.Store.Backend)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// A provider without its key is not an error: summaries fall back to heuristics.
	switch strings.ToLower(c.LLM.Provider) {
	case LLMProviderNone, LLMProviderOpenAI, LLMProviderAnthropic, LLMProviderGemini:
	default:
		return fmt.Errorf("invalid LLM provider: %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	if c.Summary.GenerationTimeout <= 0 {
		return fmt.Errorf("summary generation_timeout must be positive")
	}

	if c.PaperSources.SearchTimeout <= 0 {
		return fmt.Errorf("paper_sources search_timeout must be positive")
	}

	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when the cache is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	if c.Scheduler.RecentSearchRetention < 0 {
		return fmt.Errorf("recent_search_retention must not be negative")
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.RetentionSchedule); err != nil {
			return fmt.Errorf("invalid retention_schedule %q: %w", c.Scheduler.RetentionSchedule, err)
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}
	if c.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.MaxConns < c.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.MaxConns, c.MinConns)
	}
	return nil
}
