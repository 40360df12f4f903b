package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Ntfy contains connection settings for the ntfy notification service.
type Ntfy struct {
	ServerURL       string   `toml:"server_url"`
	DefaultTopic    string   `toml:"default_topic"`
	DefaultPriority int      `toml:"default_priority"`
	DefaultTags     []string `toml:"default_tags"`
	AuthToken       string   `toml:"auth_token"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	SendFormat      string   `toml:"send_format"`
}

// Retry contains the notification client's backoff policy.
type Retry struct {
	MaxAttempts       int     `toml:"max_attempts"`
	BaseDelayMillis   int     `toml:"base_delay_ms"`
	MaxDelayMillis    int     `toml:"max_delay_ms"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	JitterFactor      float64 `toml:"jitter_factor"`
}

// Daemon contains delivery worker and daemon process settings.
type Daemon struct {
	MaxRetries        int    `toml:"max_retries"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	QueueCapacity     int    `toml:"queue_capacity"`
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
}

// Hooks contains per-hook routing overrides applied at submission time.
// Filters hold substring patterns per hook; a leading "!" excludes events
// whose payload contains the pattern, anything else is required to match.
type Hooks struct {
	Enabled    bool                `toml:"enabled"`
	Topics     map[string]string   `toml:"topics"`
	Priorities map[string]int      `toml:"priorities"`
	Filters    map[string][]string `toml:"filters"`
}

// Config encapsulates all configuration values for herald.
type Config struct {
	Ntfy   Ntfy   `toml:"ntfy"`
	Retry  Retry  `toml:"retry"`
	Daemon Daemon `toml:"daemon"`
	Hooks  Hooks  `toml:"hooks"`

	// Templates maps hook names to custom body templates that replace the
	// builtin of the same name. Parsed when the daemon starts.
	Templates map[string]string `toml:"templates"`

	// scope holds the resolved runtime directory. Not serialized.
	scope Scope `toml:"-"`
}

// Load locates, parses, and validates a configuration file for the given
// scope. The boolean result reports whether a config file existed.
func Load(scope Scope) (*Config, string, bool, error) {
	cfg := Default()
	cfg.scope = scope

	path := scope.ConfigPath()
	exists := true
	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		exists = false
	}
	if exists {
		defer file.Close()
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, path, exists, nil
}

// Scope returns the scope this config was loaded for.
func (c *Config) Scope() Scope {
	return c.scope
}

func (c *Config) normalize() {
	c.Ntfy.ServerURL = strings.TrimRight(strings.TrimSpace(c.Ntfy.ServerURL), "/")
	c.Ntfy.DefaultTopic = strings.TrimSpace(c.Ntfy.DefaultTopic)
	c.Ntfy.SendFormat = strings.ToLower(strings.TrimSpace(c.Ntfy.SendFormat))
	if c.Ntfy.SendFormat == "" {
		c.Ntfy.SendFormat = SendFormatText
	}
	if c.Ntfy.TimeoutSeconds <= 0 {
		c.Ntfy.TimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	if c.Ntfy.DefaultPriority == 0 {
		c.Ntfy.DefaultPriority = defaultPriority
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if c.Retry.BaseDelayMillis <= 0 {
		c.Retry.BaseDelayMillis = defaultRetryBaseDelayMillis
	}
	if c.Retry.MaxDelayMillis <= 0 {
		c.Retry.MaxDelayMillis = defaultRetryMaxDelayMillis
	}
	if c.Retry.BackoffMultiplier <= 0 {
		c.Retry.BackoffMultiplier = defaultRetryBackoffMultiplier
	}
	if c.Retry.JitterFactor < 0 {
		c.Retry.JitterFactor = 0
	}
	if c.Daemon.MaxRetries <= 0 {
		c.Daemon.MaxRetries = defaultDaemonMaxRetries
	}
	if c.Daemon.RetryDelaySeconds <= 0 {
		c.Daemon.RetryDelaySeconds = defaultDaemonRetryDelaySeconds
	}
	if c.Daemon.QueueCapacity <= 0 {
		c.Daemon.QueueCapacity = defaultQueueCapacity
	}
	c.Daemon.LogLevel = strings.ToLower(strings.TrimSpace(c.Daemon.LogLevel))
	if c.Daemon.LogLevel == "" {
		c.Daemon.LogLevel = defaultLogLevel
	}
	c.Daemon.LogFormat = strings.ToLower(strings.TrimSpace(c.Daemon.LogFormat))
	if c.Daemon.LogFormat == "" {
		c.Daemon.LogFormat = defaultLogFormat
	}
}

// Validate reports configuration values that cannot be used at runtime.
func (c *Config) Validate() error {
	if c.Ntfy.ServerURL == "" {
		return errors.New("ntfy.server_url must not be empty")
	}
	if !strings.HasPrefix(c.Ntfy.ServerURL, "http://") && !strings.HasPrefix(c.Ntfy.ServerURL, "https://") {
		return fmt.Errorf("ntfy.server_url %q must start with http:// or https://", c.Ntfy.ServerURL)
	}
	if c.Ntfy.DefaultTopic == "" {
		return errors.New("ntfy.default_topic must not be empty")
	}
	if c.Ntfy.DefaultPriority < 1 || c.Ntfy.DefaultPriority > 5 {
		return fmt.Errorf("ntfy.default_priority %d must be between 1 and 5", c.Ntfy.DefaultPriority)
	}
	switch c.Ntfy.SendFormat {
	case SendFormatText, SendFormatJSON:
	default:
		return fmt.Errorf("ntfy.send_format %q must be one of text|json", c.Ntfy.SendFormat)
	}
	for hook, priority := range c.Hooks.Priorities {
		if priority < 1 || priority > 5 {
			return fmt.Errorf("hooks.priorities[%s] = %d must be between 1 and 5", hook, priority)
		}
	}
	return nil
}

// TopicFor resolves the ntfy topic for a hook, honoring per-hook overrides.
func (c *Config) TopicFor(hookName string) string {
	if topic, ok := c.Hooks.Topics[hookName]; ok && strings.TrimSpace(topic) != "" {
		return strings.TrimSpace(topic)
	}
	return c.Ntfy.DefaultTopic
}

// ShouldProcess reports whether a hook event passes the configured
// filters. The raw payload is matched as a string.
func (c *Config) ShouldProcess(hookName, hookData string) bool {
	if !c.Hooks.Enabled {
		return false
	}
	for _, filter := range c.Hooks.Filters[hookName] {
		if pattern, negated := strings.CutPrefix(filter, "!"); negated {
			if strings.Contains(hookData, pattern) {
				return false
			}
		} else if !strings.Contains(hookData, filter) {
			return false
		}
	}
	return true
}

// PriorityFor resolves the notification priority for a hook.
func (c *Config) PriorityFor(hookName string) int {
	if priority, ok := c.Hooks.Priorities[hookName]; ok && priority >= 1 && priority <= 5 {
		return priority
	}
	return c.Ntfy.DefaultPriority
}

// Save writes the configuration to its scope's config path.
func (c *Config) Save() error {
	if err := c.scope.EnsureDir(); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.scope.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
