// Package config provides YAML-based configuration loading for Waybridge.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// cronParser accepts standard 5-field cron expressions (minute, hour, dom,
// month, dow) for the drain schedule.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Config is the top-level Waybridge configuration, loaded from waybridge.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Drain     DrainConfig     `yaml:"drain"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

// DrainConfig controls the drain loop: how often it fires, how many jobs it
// takes per pass, and the retry budget for failed jobs.
type DrainConfig struct {
	Schedule    string `yaml:"schedule"`
	Limit       int    `yaml:"limit"`
	MaxAttempts int    `yaml:"max_attempts"`
	BaseDelayMs int    `yaml:"base_delay_ms"`
	DelayCapMs  int    `yaml:"delay_cap_ms"`
}

// DashboardConfig holds settings for the ops dashboard server.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// NotifyConfig holds optional chat forwarders for realtime events. A
// forwarder is disabled when its token or channel is empty.
type NotifyConfig struct {
	Discord ChannelConfig `yaml:"discord"`
	Slack   ChannelConfig `yaml:"slack"`
}

// ChannelConfig identifies one chat channel to post events to.
type ChannelConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with every default applied, used when no config
// file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// BaseDelay returns the retry base delay as a duration.
func (d DrainConfig) BaseDelay() time.Duration {
	return time.Duration(d.BaseDelayMs) * time.Millisecond
}

// DelayCap returns the retry delay cap as a duration.
func (d DrainConfig) DelayCap() time.Duration {
	return time.Duration(d.DelayCapMs) * time.Millisecond
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "waybridge"
	}
	if c.Drain.Schedule == "" {
		c.Drain.Schedule = "* * * * *"
	}
	if c.Drain.Limit == 0 {
		c.Drain.Limit = 20
	}
	if c.Drain.MaxAttempts == 0 {
		c.Drain.MaxAttempts = 6
	}
	if c.Drain.BaseDelayMs == 0 {
		c.Drain.BaseDelayMs = 1000
	}
	if c.Drain.DelayCapMs == 0 {
		c.Drain.DelayCapMs = 300000
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if _, err := cronParser.Parse(c.Drain.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("drain.schedule %q is not a valid cron expression", c.Drain.Schedule))
	}
	if c.Drain.Limit < 0 {
		errs = append(errs, "drain.limit must not be negative")
	}
	if c.Drain.MaxAttempts < 1 {
		errs = append(errs, "drain.max_attempts must be at least 1")
	}
	if c.Drain.BaseDelayMs < 1 {
		errs = append(errs, "drain.base_delay_ms must be positive")
	}
	if c.Drain.DelayCapMs < c.Drain.BaseDelayMs {
		errs = append(errs, "drain.delay_cap_ms must be at least drain.base_delay_ms")
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		errs = append(errs, "dashboard.port must be between 1 and 65535")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NextDrainFire parses the drain schedule and returns the duration until the
// next fire time. Returns 0 on parse error so callers can fall back.
func (c *Config) NextDrainFire(now time.Time) time.Duration {
	sched, err := cronParser.Parse(c.Drain.Schedule)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
