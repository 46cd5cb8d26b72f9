// Package config loads IntelliCrawl's configuration.
//
// Precedence, lowest to highest:
//  1. defaults (setDefaults)
//  2. config.yaml in /etc/intellicrawl, $HOME/.intellicrawl or the working dir
//  3. environment: INTELLICRAWL_<SECTION>_<KEY>, e.g. INTELLICRAWL_SERVER_PORT
//  4. the well-known variables TAVILY_API_KEY, GEMINI_API_KEY, DATABASE_URL,
//     GITHUB_TOKEN, REDIS_URL and NATS_URL, for drop-in .env files
//
// A .env file in the working directory is loaded into the process
// environment first, without overriding variables already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/intellicrawl/internal/reconcile"
	"github.com/sakif/intellicrawl/internal/search"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
	Store     StoreConfig     `mapstructure:"store"`
	AI        AIConfig        `mapstructure:"ai"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Events    EventsConfig    `mapstructure:"events"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// SearchConfig configures the Tavily client. An empty APIKey disables search.
type SearchConfig struct {
	APIKey  string        `mapstructure:"apiKey"`
	BaseURL string        `mapstructure:"baseURL"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig configures both persistence tiers.
type StoreConfig struct {
	// DatabaseURL is the Postgres primary. Empty means fallback only.
	DatabaseURL     string        `mapstructure:"databaseURL"`
	MaxConns        int32         `mapstructure:"maxConns"`
	MinConns        int32         `mapstructure:"minConns"`
	MaxConnLifetime time.Duration `mapstructure:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"maxConnIdleTime"`
	// SQLitePath is the local fallback file.
	SQLitePath string `mapstructure:"sqlitePath"`
}

// AIConfig configures the completion provider. An empty APIKey means the
// offline templates answer every agent request.
type AIConfig struct {
	APIKey         string               `mapstructure:"apiKey"`
	Model          string               `mapstructure:"model"`
	Temperature    float32              `mapstructure:"temperature"`
	MaxTokens      int32                `mapstructure:"maxTokens"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	BaseURL        string               `mapstructure:"baseURL"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig configures the breaker around completion calls.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // count reset period while closed
	Timeout          time.Duration `mapstructure:"timeout"`          // open → half-open delay
	MinRequests      uint32        `mapstructure:"minRequests"`      // before the ratio is considered
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// GitHubConfig configures enrichment. An empty Token disables it.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"baseURL"`
}

// CacheConfig configures the Redis search cache. An empty RedisURL disables it.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redisURL"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EventsConfig configures NATS publishing. An empty NATSURL disables it.
type EventsConfig struct {
	NATSURL string `mapstructure:"natsURL"`
	Subject string `mapstructure:"subject"`
}

// AuthConfig configures bearer tokens. An empty Secret leaves every route open.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"tokenTTL"`
}

// RateLimitConfig configures the per-IP limiter on search and agent routes.
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	Burst          int  `mapstructure:"burst"`
}

// ReconcileConfig configures the fallback → primary sync job.
type ReconcileConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"` // cron spec or @every
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Options tweak Load. The zero value searches the default locations.
type Options struct {
	// ConfigFile, when set, is read instead of searching for config.yaml.
	ConfigFile string
	// EnvFile is the dotenv file to load; empty means ".env". A missing
	// file is not an error.
	EnvFile string
}

// Load builds the configuration and validates it.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INTELLICRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindWellKnownEnv(v); err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/intellicrawl/")
		v.AddConfigPath("$HOME/.intellicrawl")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// bindWellKnownEnv maps the un-prefixed variable names used by existing
// deployments. BindEnv tries the names in order, so the prefixed form wins.
func bindWellKnownEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"search.apiKey":     {"INTELLICRAWL_SEARCH_APIKEY", "TAVILY_API_KEY"},
		"ai.apiKey":         {"INTELLICRAWL_AI_APIKEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"store.databaseURL": {"INTELLICRAWL_STORE_DATABASEURL", "DATABASE_URL"},
		"github.token":      {"INTELLICRAWL_GITHUB_TOKEN", "GITHUB_TOKEN"},
		"cache.redisURL":    {"INTELLICRAWL_CACHE_REDISURL", "REDIS_URL"},
		"events.natsURL":    {"INTELLICRAWL_EVENTS_NATSURL", "NATS_URL"},
		"server.port":       {"INTELLICRAWL_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	// Searches with enrichment fan out to GitHub; leave room for them.
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("search.apiKey", "")
	v.SetDefault("search.baseURL", search.DefaultBaseURL)
	v.SetDefault("search.timeout", search.DefaultTimeout)

	v.SetDefault("store.databaseURL", "")
	v.SetDefault("store.maxConns", 10)
	v.SetDefault("store.minConns", 2)
	v.SetDefault("store.maxConnLifetime", time.Hour)
	v.SetDefault("store.maxConnIdleTime", 30*time.Minute)
	v.SetDefault("store.sqlitePath", "data/intellicrawl.db")

	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxTokens", 1000)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.baseURL", "")
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("github.token", "")
	v.SetDefault("github.baseURL", "")

	v.SetDefault("cache.redisURL", "")
	v.SetDefault("cache.ttl", 15*time.Minute)

	v.SetDefault("events.natsURL", "")
	v.SetDefault("events.subject", "candidates.saved")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.tokenTTL", 30*24*time.Hour)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMin", 30)
	v.SetDefault("rateLimit.burst", 10)

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.schedule", "@every 5m")
	v.SetDefault("reconcile.timeout", 2*time.Minute)
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	for name, d := range map[string]time.Duration{
		"server.readTimeout":     c.Server.ReadTimeout,
		"server.writeTimeout":    c.Server.WriteTimeout,
		"server.idleTimeout":     c.Server.IdleTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
		"search.timeout":         c.Search.Timeout,
		"ai.timeout":             c.AI.Timeout,
		"cache.ttl":              c.Cache.TTL,
		"auth.tokenTTL":          c.Auth.TokenTTL,
		"reconcile.timeout":      c.Reconcile.Timeout,
	} {
		if d < 0 {
			add("%s must not be negative, got %s", name, d)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Store.SQLitePath == "" {
		add("store.sqlitePath is required")
	}
	if c.Store.MaxConns < 0 || c.Store.MinConns < 0 {
		add("store.maxConns and store.minConns must not be negative")
	}
	if c.Store.MaxConns > 0 && c.Store.MinConns > c.Store.MaxConns {
		add("store.minConns (%d) must not exceed store.maxConns (%d)", c.Store.MinConns, c.Store.MaxConns)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		add("ai.temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.MaxTokens < 0 {
		add("ai.maxTokens must not be negative, got %d", c.AI.MaxTokens)
	}
	if cb := c.AI.CircuitBreaker; cb.Enabled && (cb.FailureThreshold <= 0 || cb.FailureThreshold > 1) {
		add("ai.circuitBreaker.failureThreshold must be in (0, 1], got %v", cb.FailureThreshold)
	}

	if c.Auth.Secret != "" && len(c.Auth.Secret) < 16 {
		add("auth.secret must be at least 16 characters")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMin <= 0 {
			add("rateLimit.requestsPerMin must be positive, got %d", c.RateLimit.RequestsPerMin)
		}
		if c.RateLimit.Burst <= 0 {
			add("rateLimit.burst must be positive, got %d", c.RateLimit.Burst)
		}
	}

	if c.Reconcile.Enabled {
		if err := reconcile.ValidateSchedule(c.Reconcile.Schedule); err != nil {
			add("reconcile.schedule: %w", err)
		}
	}

	return errors.Join(errs...)
}
