// Package config loads server configuration from defaults, an optional YAML
// file, READUP_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/listenupapp/readup-server/internal/logger"
	"github.com/listenupapp/readup-server/internal/scheduler"
)

// EnvPrefix prefixes every environment variable, e.g. READUP_SERVER_PORT.
const EnvPrefix = "READUP"

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "readup.db"

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Data      DataConfig      `mapstructure:"data"`
	Server    ServerConfig    `mapstructure:"server"`
	Search    SearchConfig    `mapstructure:"search"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, pretty, or empty to follow the environment
}

// DataConfig locates persistent state.
type DataConfig struct {
	Path string `mapstructure:"path"` // holds readup.db and the search snapshots
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// SearchConfig holds search index configuration.
type SearchConfig struct {
	InMemory       bool `mapstructure:"in_memory"`        // keep the index out of the data directory
	RebuildOnStart bool `mapstructure:"rebuild_on_start"` // rebuild even when the snapshot is current
}

// ScannerConfig holds sidecar scanning configuration.
type ScannerConfig struct {
	Watch           bool          `mapstructure:"watch"`
	RescanDelay     time.Duration `mapstructure:"rescan_delay"`
	RescanSchedule  string        `mapstructure:"rescan_schedule"`  // cron, empty disables
	ReindexSchedule string        `mapstructure:"reindex_schedule"` // cron, empty disables
}

// RateLimitConfig holds per-user API rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabasePath returns the SQLite database path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.Path, DatabaseFile)
}

// SearchPath returns the directory handed to the search index, or "" for an
// in-memory index.
func (c *Config) SearchPath() string {
	if c.Search.InMemory {
		return ""
	}
	return c.Data.Path
}

// ScheduleConfig returns the cron schedules for the scheduler.
func (c *Config) ScheduleConfig() scheduler.Config {
	return scheduler.Config{
		RescanSchedule:  c.Scanner.RescanSchedule,
		ReindexSchedule: c.Scanner.ReindexSchedule,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "")

	v.SetDefault("data.path", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 25600)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("search.in_memory", false)
	v.SetDefault("search.rebuild_on_start", false)

	v.SetDefault("scanner.watch", true)
	v.SetDefault("scanner.rescan_delay", "2s")
	v.SetDefault("scanner.rescan_schedule", "0 */6 * * *")
	v.SetDefault("scanner.reindex_schedule", "")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 20.0)
	v.SetDefault("ratelimit.burst", 40)
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"env":              "app.environment",
	"log-level":        "logger.level",
	"log-format":       "logger.format",
	"data-path":        "data.path",
	"host":             "server.host",
	"port":             "server.port",
	"in-memory-index":  "search.in_memory",
	"rebuild-index":    "search.rebuild_on_start",
	"watch":            "scanner.watch",
	"rescan-schedule":  "scanner.rescan_schedule",
	"reindex-schedule": "scanner.reindex_schedule",
}

// RegisterFlags defines the configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("env", "", "Environment (development, staging, production)")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (json, pretty)")
	fs.String("data-path", "", "Directory for the database and search index")
	fs.String("host", "", "Listen host")
	fs.Int("port", 0, "Listen port")
	fs.Bool("in-memory-index", false, "Keep the search index in memory")
	fs.Bool("rebuild-index", false, "Rebuild the search index on start")
	fs.Bool("watch", true, "Watch library roots for sidecar changes")
	fs.String("rescan-schedule", "", "Cron schedule for library rescans")
	fs.String("reindex-schedule", "", "Cron schedule for search reindexing")
}

// Load builds the configuration with this precedence, highest first:
// flags set on the command line, environment, config file, defaults.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}
	if err := readConfigFile(v, fs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindFlags binds only flags the user changed, so unset flag defaults do
// not shadow the environment or the config file.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	path := os.Getenv(EnvPrefix + "_CONFIG")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("readup")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "readup"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

var validEnvs = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("environment is required")
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if !logger.ValidLevel(c.Logger.Level) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	switch c.Logger.Format {
	case "", logger.FormatJSON, logger.FormatPretty:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if err := scheduler.ValidateSchedule(c.Scanner.RescanSchedule); err != nil {
		return fmt.Errorf("rescan schedule: %w", err)
	}
	if err := scheduler.ValidateSchedule(c.Scanner.ReindexSchedule); err != nil {
		return fmt.Errorf("reindex schedule: %w", err)
	}
	if c.Scanner.RescanDelay < 0 {
		return fmt.Errorf("invalid rescan delay: %s", c.Scanner.RescanDelay)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("rate limit needs a positive rate and burst when enabled")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/ReadUp/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ReadUp", "data")

	expanded, err := expandPath(c.Data.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}
