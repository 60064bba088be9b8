package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

// Config is the full runtime configuration. Durations are expressed as
// float seconds in YAML so sub-second values stay readable.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Browser    BrowserConfig    `yaml:"browser"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Output     OutputConfig     `yaml:"output"`
	Status     StatusConfig     `yaml:"status"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// EngineConfig tunes the run itself: concurrency, batching, pacing and
// retry behavior.
type EngineConfig struct {
	MaxWorkers               int     `yaml:"max_workers"`
	BatchSize                int     `yaml:"batch_size"`
	SessionPoolSize          int     `yaml:"session_pool_size"`
	SessionReuseLimit        int     `yaml:"session_reuse_limit"`
	RateLimitIntervalSeconds float64 `yaml:"rate_limit_interval_seconds"`
	JitterFactor             float64 `yaml:"jitter_factor"`
	MaxRetries               int     `yaml:"max_retries"`
	TaskTimeoutSeconds       float64 `yaml:"task_timeout_seconds"`

	// Taint policy: whether a block page or a timeout burns the session.
	TaintOnBlock   *bool `yaml:"taint_on_block"`
	TaintOnTimeout *bool `yaml:"taint_on_timeout"`
}

// BrowserConfig controls the underlying Chrome sessions.
type BrowserConfig struct {
	Headless                 *bool    `yaml:"headless"`
	Mobile                   bool     `yaml:"mobile"`
	DisableImages            bool     `yaml:"disable_images"`
	ProxyURL                 string   `yaml:"proxy_url"`
	ProxyURLs                []string `yaml:"proxy_urls"`
	NavigationTimeoutSeconds float64  `yaml:"navigation_timeout_seconds"`
}

// MonitoringConfig controls the optional metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// OutputConfig selects result sinks. Multiple sinks may be active at once.
type OutputConfig struct {
	JSONFile  string       `yaml:"json_file"`
	ExcelFile string       `yaml:"excel_file"`
	MongoDB   MongoConfig  `yaml:"mongodb"`
	Database  DBSinkConfig `yaml:"database"`
}

// MongoConfig points at a MongoDB collection for result persistence.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// DBSinkConfig points at a SQL database for result persistence.
type DBSinkConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// StatusConfig enables the Redis processed-URL store, used to skip URLs
// already harvested by an earlier run.
type StatusConfig struct {
	RedisAddr     string  `yaml:"redis_addr"`
	RedisPassword string  `yaml:"redis_password"`
	RedisDB       int     `yaml:"redis_db"`
	KeyPrefix     string  `yaml:"key_prefix"`
	TTLHours      float64 `yaml:"ttl_hours"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when a field is absent.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxWorkers:               4,
			BatchSize:                10,
			SessionPoolSize:          2,
			SessionReuseLimit:        5,
			RateLimitIntervalSeconds: 2.0,
			JitterFactor:             0.3,
			MaxRetries:               1,
			TaskTimeoutSeconds:       60.0,
		},
		Browser: BrowserConfig{
			NavigationTimeoutSeconds: 30.0,
		},
		Monitoring: MonitoringConfig{
			Addr: ":9090",
		},
		Status: StatusConfig{
			KeyPrefix: "leadharvest",
			TTLHours:  24 * 7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "config.load", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "config.load", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a sane run. It is
// called before any session is created or task started.
func (c *Config) Validate() error {
	e := c.Engine
	checks := []struct {
		ok  bool
		msg string
	}{
		{e.MaxWorkers >= 1, fmt.Sprintf("max_workers must be >= 1, got %d", e.MaxWorkers)},
		{e.BatchSize >= 1, fmt.Sprintf("batch_size must be >= 1, got %d", e.BatchSize)},
		{e.SessionPoolSize >= 1, fmt.Sprintf("session_pool_size must be >= 1, got %d", e.SessionPoolSize)},
		{e.SessionReuseLimit >= 1, fmt.Sprintf("session_reuse_limit must be >= 1, got %d", e.SessionReuseLimit)},
		{e.RateLimitIntervalSeconds >= 0, fmt.Sprintf("rate_limit_interval_seconds must be >= 0, got %v", e.RateLimitIntervalSeconds)},
		{e.JitterFactor >= 0 && e.JitterFactor < 1, fmt.Sprintf("jitter_factor must be in [0, 1), got %v", e.JitterFactor)},
		{e.MaxRetries >= 0, fmt.Sprintf("max_retries must be >= 0, got %d", e.MaxRetries)},
		{e.TaskTimeoutSeconds > 0, fmt.Sprintf("task_timeout_seconds must be > 0, got %v", e.TaskTimeoutSeconds)},
		{c.Browser.NavigationTimeoutSeconds > 0, fmt.Sprintf("navigation_timeout_seconds must be > 0, got %v", c.Browser.NavigationTimeoutSeconds)},
	}
	for _, chk := range checks {
		if !chk.ok {
			return cerrors.Newf(cerrors.KindFatalConfiguration, "config.validate", "%s", chk.msg)
		}
	}
	return nil
}

// RateLimitInterval returns the pacing interval as a duration.
func (e EngineConfig) RateLimitInterval() time.Duration {
	return secondsToDuration(e.RateLimitIntervalSeconds)
}

// TaskTimeout returns the per-attempt deadline as a duration.
func (e EngineConfig) TaskTimeout() time.Duration {
	return secondsToDuration(e.TaskTimeoutSeconds)
}

// NavigationTimeout returns the page load deadline as a duration.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	return secondsToDuration(b.NavigationTimeoutSeconds)
}

// HeadlessEnabled reports whether Chrome runs headless; absent means yes.
func (b BrowserConfig) HeadlessEnabled() bool {
	return b.Headless == nil || *b.Headless
}

// TTL returns the status store entry lifetime.
func (s StatusConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours * float64(time.Hour))
}

// Enabled reports whether a status store is configured at all.
func (s StatusConfig) Enabled() bool { return s.RedisAddr != "" }

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
