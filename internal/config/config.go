package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	Server ServerConfig `mapstructure:"server"`
	Roots  RootsConfig  `mapstructure:"roots"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the websocket endpoint
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Path            string        `mapstructure:"path"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ControlRate     float64       `mapstructure:"control_rate"`
	ControlBurst    int           `mapstructure:"control_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RootsConfig maps logical mounts to directories
type RootsConfig struct {
	// Root exposes each of its child directories as a mount
	Root string `mapstructure:"root"`
	// Dirs names explicit mounts; they take precedence over Root children
	Dirs map[string]string `mapstructure:"dirs"`
}

// ScanConfig holds scan task tuning
type ScanConfig struct {
	BufferSize      int           `mapstructure:"buffer_size"`
	PrefetchLines   int           `mapstructure:"prefetch_lines"`
	BatchSize       int           `mapstructure:"batch_size"`
	FlushInterval   time.Duration `mapstructure:"flush_interval"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	GroupIdle       time.Duration `mapstructure:"group_idle"`
	MaxGroupLines   int           `mapstructure:"max_group_lines"`
	Workers         int64         `mapstructure:"workers"`
	FallbackCharset string        `mapstructure:"fallback_charset"`
}

// LogConfig configures the server log
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console or json
	File       string `mapstructure:"file"`   // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format: "ndjson",
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			Path:            "/ws",
			ReadLimit:       64 * 1024,
			PingInterval:    30 * time.Second,
			WriteTimeout:    10 * time.Second,
			ControlRate:     10,
			ControlBurst:    20,
			ShutdownTimeout: 10 * time.Second,
		},
		Roots: RootsConfig{
			Root: "/var/log",
		},
		Scan: ScanConfig{
			BufferSize:    4096,
			PrefetchLines: 100,
			BatchSize:     100,
			FlushInterval: 100 * time.Millisecond,
			PollInterval:  200 * time.Millisecond,
			GroupIdle:     600 * time.Millisecond,
			MaxGroupLines: 10000,
			Workers:       64,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.logview.yaml or ./.logview.yml
// 2. ./logview.yaml or ./logview.yml
// 3. ~/.logview.yaml or ~/.logview.yml
// 4. $XDG_CONFIG_HOME/logview/config.yaml (or ~/.config/logview/config.yaml)
// 5. /etc/logview/config.yaml
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	return load(path)
}

func load(configFile string) (*Config, error) {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Shortcuts without the section prefix
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance that knows every key, so LOGVIEW_*
// variables such as LOGVIEW_SCAN_POLL_INTERVAL reach nested fields.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("LOGVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("format", d.Format)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("verbose", d.Verbose)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.path", d.Server.Path)
	v.SetDefault("server.read_limit", d.Server.ReadLimit)
	v.SetDefault("server.ping_interval", d.Server.PingInterval)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.control_rate", d.Server.ControlRate)
	v.SetDefault("server.control_burst", d.Server.ControlBurst)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("roots.root", d.Roots.Root)

	v.SetDefault("scan.buffer_size", d.Scan.BufferSize)
	v.SetDefault("scan.prefetch_lines", d.Scan.PrefetchLines)
	v.SetDefault("scan.batch_size", d.Scan.BatchSize)
	v.SetDefault("scan.flush_interval", d.Scan.FlushInterval)
	v.SetDefault("scan.poll_interval", d.Scan.PollInterval)
	v.SetDefault("scan.group_idle", d.Scan.GroupIdle)
	v.SetDefault("scan.max_group_lines", d.Scan.MaxGroupLines)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.fallback_charset", d.Scan.FallbackCharset)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	return v
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	// Config file names to search for (in order)
	names := []string{".logview.yaml", ".logview.yml", "logview.yaml", "logview.yml"}

	// Search locations in order of precedence (highest first)
	var searchPaths []string

	// 1. Current directory
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}

	// 2. Home directory
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, home)
	}

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	// 3. Config directory (e.g., ~/.config/logview/), then system config
	var dedicated []string
	if configDir, err := os.UserConfigDir(); err == nil {
		dedicated = append(dedicated, filepath.Join(configDir, "logview"))
	}
	dedicated = append(dedicated, "/etc/logview")
	for _, dir := range dedicated {
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGVIEW_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOGVIEW_ROOT"); v != "" {
		cfg.Roots.Root = v
	}
}

// Validate reports settings that cannot work
func (c *Config) Validate() error {
	switch c.Format {
	case "ndjson", "text":
	default:
		return fmt.Errorf("invalid format %q: expected ndjson or text", c.Format)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q: expected console or json", c.Log.Format)
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with /: %q", c.Server.Path)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Server.ControlRate <= 0 || c.Server.ControlBurst <= 0 {
		return fmt.Errorf("server.control_rate and server.control_burst must be positive")
	}
	return nil
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}
