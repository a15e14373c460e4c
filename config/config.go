package config

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/board/errors"
	"github.com/grovetools/board/pkg/paths"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a configuration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory.
var configNames = []string{
	"board.yml",
	"board.yaml",
	"board.toml",
	".board.yml",
	".board.yaml",
}

// Environment overrides applied after the file is loaded.
const (
	EnvAPIURL        = "BOARD_API_URL"
	EnvListen        = "BOARD_LISTEN"
	EnvDBDriver      = "BOARD_DB_DRIVER"
	EnvDBDSN         = "BOARD_DB_DSN"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChat  = "TELEGRAM_CHAT_ID"
)

// Load reads and parses a board configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := LoadFromBytes(data, formatFor(path))
	if err != nil {
		if boardErr, ok := err.(*errors.BoardError); ok {
			boardErr.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads configuration starting from the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads configuration for the given directory:
// 1. .env in the directory (optional) populates the environment
// 2. board.yml / board.toml found upward from the directory, or in the config dir (optional)
// 3. BOARD_* environment variables override file values
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger is LoadFrom with a caller-supplied logger.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	envPath := filepath.Join(startDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(envPath); err != nil {
			logger.WithError(err).WithField("path", envPath).Warn("Failed to load .env file, continuing without it")
		}
	}

	var cfg *Config
	path, err := FindConfigFile(startDir)
	if err == nil {
		logger.WithField("path", path).Debug("Loading board configuration")
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else if errors.Is(err, errors.ErrCodeConfigNotFound) {
		logger.Debug("No board configuration file found, using defaults")
		cfg = Default()
	} else {
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromBytes parses configuration from a byte array.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	if format == FormatTOML {
		// TOML is normalized through a generic map so the inline extension
		// capture works the same way for both formats.
		var raw map[string]interface{}
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		converted, err := yaml.Marshal(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to normalize TOML configuration")
		}
		expanded = converted
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv(EnvDBDriver); v != "" {
		c.Server.Database.Driver = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		c.Server.Database.DSN = v
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		c.Notify.Telegram.Token = v
	}
	if v := os.Getenv(EnvTelegramChat); v != "" {
		c.Notify.Telegram.ChatID = v
	}
}

// Validate checks the configuration for values the tools cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "api_url is not a valid URL").
			WithDetail("api_url", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.ConfigInvalid("api_url must use http or https").
			WithDetail("api_url", c.APIURL)
	}
	if u.Host == "" {
		return errors.ConfigInvalid("api_url has no host").
			WithDetail("api_url", c.APIURL)
	}

	switch c.Server.Database.Driver {
	case DriverMemory, DriverSQLite:
	case DriverMySQL:
		if c.Server.Database.DSN == "" {
			return errors.ConfigInvalid("server.database.dsn is required for the mysql driver")
		}
	default:
		return errors.ConfigInvalid("unknown server.database.driver").
			WithDetail("driver", c.Server.Database.Driver)
	}
	return nil
}

// FindConfigFile searches for a board configuration file:
// 1. Current directory up to filesystem root
// 2. The user config directory (~/.config/board)
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		if path := firstExisting(dir); path != "" {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if configDir := paths.ConfigDir(); configDir != "" {
		if path := firstExisting(configDir); path != "" {
			return path, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

func firstExisting(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
