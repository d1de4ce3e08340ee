// Package config handles loading and validating the notifier configuration
// from an optional YAML file, environment variable substitution, and the
// environment variables the function runtime provides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// State backends.
const (
	BackendSecretManager = "secretmanager"
	BackendPostgres      = "postgres"
)

// DefaultChannel is the Slack channel used when none is configured.
const DefaultChannel = "#gcp-test"

// DefaultTokenSecret names the Secret Manager secret holding the Slack bot
// token when SLACK_API_TOKEN is not set.
const DefaultTokenSecret = "gcp-slack-notifier-SLACK_API_TOKEN" //nolint:gosec // secret name, not a credential

// DefaultSlackTimeout bounds each Slack API call when slack.timeout is unset.
// slack-go itself applies no timeout.
const DefaultSlackTimeout = 10 * time.Second

// Config is the top-level notifier configuration.
type Config struct {
	Slack     SlackConfig     `yaml:"slack"`
	State     StateConfig     `yaml:"state"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SlackConfig defines where and how notifications are posted.
type SlackConfig struct {
	Channel     string          `yaml:"channel"`
	APIToken    string          `yaml:"api_token"`
	TokenSecret string          `yaml:"token_secret"`
	WebhookURL  string          `yaml:"webhook_url"`
	APIURL      string          `yaml:"api_url"` // overrides https://slack.com/api/ (mock servers)
	Timeout     time.Duration   `yaml:"timeout"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig paces outgoing Slack posts.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// StateConfig selects where throttle state is kept.
type StateConfig struct {
	Backend string `yaml:"backend"` // secretmanager, postgres
	// ProjectID is used when the event resource does not name a project.
	ProjectID string `yaml:"project_id"`
}

// DatabaseConfig defines PostgreSQL connection settings for the postgres
// state backend.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL keyword/value connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// ConnString returns URL when set, otherwise DSN.
func (d *DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	return d.DSN()
}

// ServerConfig defines the Pub/Sub push HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// Resource is the topic the push subscription is attached to, in the
	// form projects/{project}/topics/{topic}. Push requests don't carry it.
	Resource string `yaml:"resource"`
}

// TelemetryConfig defines OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	Insecure       bool          `yaml:"insecure"`
	ServiceName    string        `yaml:"service_name"`
	SampleRatio    float64       `yaml:"sample_ratio"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, gcp
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides from the process environment, defaults, and
// validation.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // config path from trusted flag or env
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.Expand(string(data), func(k string) string {
			v, _ := lookup(k)
			return v
		})

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("SLACK_CHANNEL", &cfg.Slack.Channel)
	str("SLACK_API_TOKEN", &cfg.Slack.APIToken)
	str("SLACK_WEBHOOK_URL", &cfg.Slack.WebhookURL)
	str("SLACK_API_URL", &cfg.Slack.APIURL)
	str("STATE_BACKEND", &cfg.State.Backend)
	str("GOOGLE_CLOUD_PROJECT", &cfg.State.ProjectID)
	str("DATABASE_URL", &cfg.Database.URL)
	str("PUBSUB_RESOURCE", &cfg.Server.Resource)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok && v != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Endpoint = v
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT must be an integer (got %q)", v)
		}
		cfg.Server.Port = port
	}

	return nil
}

func applyDefaults(cfg *Config) {
	applySlackDefaults(&cfg.Slack)
	applyStateDefaults(&cfg.State)
	applyDatabaseDefaults(&cfg.Database)
	applyServerDefaults(&cfg.Server)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyLoggingDefaults(&cfg.Logging)
}

func applySlackDefaults(s *SlackConfig) {
	if s.Channel == "" {
		s.Channel = DefaultChannel
	}
	if s.TokenSecret == "" {
		s.TokenSecret = DefaultTokenSecret
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultSlackTimeout
	}
	if s.RateLimit.PerSecond == 0 {
		s.RateLimit.PerSecond = 1.0
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 1
	}
}

func applyStateDefaults(s *StateConfig) {
	if s.Backend == "" {
		s.Backend = BackendSecretManager
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 4
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "gcp-budget-notifier"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1.0
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = 60 * time.Second
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.State.Backend {
	case BackendSecretManager:
	case BackendPostgres:
		if cfg.Database.URL == "" && cfg.Database.Host == "" {
			errs = append(
				errs,
				fmt.Errorf("database.url or database.host is required when state.backend is postgres"),
			)
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"state.backend must be one of: secretmanager, postgres (got %q)",
				cfg.State.Backend,
			),
		)
	}

	if cfg.Slack.RateLimit.PerSecond < 0 {
		errs = append(errs, fmt.Errorf("slack.rate_limit.per_second must not be negative"))
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", cfg.Server.Port))
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry.endpoint is required when telemetry is enabled"))
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be between 0 and 1"))
	}

	switch cfg.Logging.Format {
	case "text", "json", "gcp":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json, gcp (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
