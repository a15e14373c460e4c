package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Database drivers understood by the store server.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultListen         = "0.0.0.0:8000"
	DefaultRequestTimeout = 10 * time.Second
	DefaultReconnectDelay = 3 * time.Second
)

// Config is the board configuration loaded from board.yml (or board.toml).
type Config struct {
	// APIURL is the base address of the listings store. The push channel
	// address is derived from it by swapping the scheme.
	APIURL string `yaml:"api_url" jsonschema:"description=Base address of the listings store"`

	Client ClientConfig `yaml:"client,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
	Notify NotifyConfig `yaml:"notify,omitempty"`

	// Extensions captures all other top-level keys (e.g. "logging").
	Extensions map[string]interface{} `yaml:",inline" jsonschema:"-"`
}

// ClientConfig holds settings for the terminal client surrounding the core.
type ClientConfig struct {
	// RequestTimeout bounds snapshot and submission requests, e.g. "10s".
	RequestTimeout string `yaml:"request_timeout,omitempty"`
	// ReconnectDelay is how long `board watch` waits before reopening a
	// dropped channel. "0" disables reconnecting.
	ReconnectDelay string `yaml:"reconnect_delay,omitempty"`
}

// ServerConfig configures `board serve`.
type ServerConfig struct {
	Listen      string         `yaml:"listen,omitempty"`
	CORSOrigins []string       `yaml:"cors_origins,omitempty"`
	Seed        *bool          `yaml:"seed,omitempty"`
	Database    DatabaseConfig `yaml:"database,omitempty"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// NotifyConfig configures creation notifications.
type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram,omitempty"`
}

// TelegramConfig holds Telegram bot credentials.
type TelegramConfig struct {
	Token  string `yaml:"token,omitempty"`
	ChatID string `yaml:"chat_id,omitempty"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != ""
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills in unset values.
func (c *Config) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.Seed == nil {
		seed := true
		c.Server.Seed = &seed
	}
	if c.Server.Database.Driver == "" {
		c.Server.Database.Driver = DriverMemory
	}
}

// RequestTimeout returns the parsed client request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Client.RequestTimeout, DefaultRequestTimeout)
}

// ReconnectDelay returns the parsed reconnect delay.
func (c *Config) ReconnectDelay() time.Duration {
	return parseDuration(c.Client.ReconnectDelay, DefaultReconnectDelay)
}

// SeedEnabled reports whether the server seeds an empty store.
func (c *Config) SeedEnabled() bool {
	return c.Server.Seed == nil || *c.Server.Seed
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if value == "0" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded board.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// Not an error: the target stays zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
