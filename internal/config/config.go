// Package config loads chatsim project configuration from TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LogLevel specifies the logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat specifies the log output format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// PathsConfig holds path configuration, relative to the project directory
// unless absolute.
type PathsConfig struct {
	TestsDir    string `toml:"tests_dir"`
	SessionsDir string `toml:"sessions_dir"`
	AgentsDir   string `toml:"agents_dir"`
	SkillsDir   string `toml:"skills_dir"`
	LogsDir     string `toml:"logs_dir"`
}

// DefaultsConfig holds default session values applied when a session file
// omits them.
type DefaultsConfig struct {
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// SessionsConfig holds session store settings.
type SessionsConfig struct {
	// Backups is the number of rotated backup copies kept per session file.
	Backups int `toml:"backups"`
}

// ToolConfig declares a shell-backed tool the runner can execute.
type ToolConfig struct {
	// Command is the shell command run for this tool. Tool input fields are
	// exposed to the command as CHATSIM_INPUT_<FIELD> environment variables.
	Command string `toml:"command"`
	// Workdir is the working directory for the command, if set.
	Workdir string `toml:"workdir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
	File   string    `toml:"file"`
}

// Config is the main configuration struct for chatsim.
type Config struct {
	Version  string                `toml:"version"`
	Paths    PathsConfig           `toml:"paths"`
	Defaults DefaultsConfig        `toml:"defaults"`
	Sessions SessionsConfig        `toml:"sessions"`
	Tools    map[string]ToolConfig `toml:"tools"`
	Logging  LoggingConfig         `toml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Paths: PathsConfig{
			TestsDir:    ".chatsim/tests",
			SessionsDir: ".chatsim/sessions",
			AgentsDir:   ".chatsim/agents",
			SkillsDir:   ".chatsim/skills",
			LogsDir:     ".chatsim/logs",
		},
		Defaults: DefaultsConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 1.0,
		},
		Sessions: SessionsConfig{
			Backups: 3,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
			File:   "",
		},
	}
}

// Load loads configuration from file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from the standard locations in a directory.
// Applies in order: defaults -> ~/.chatsim/config.toml -> .chatsim/config.toml
// Later configs override earlier ones (project-level takes precedence).
func LoadFromDir(dir string) (*Config, error) {
	cfg := Default()

	// Load global config first (if exists)
	home, err := os.UserHomeDir()
	if err == nil {
		globalConfig := filepath.Join(home, ".chatsim", "config.toml")
		if data, err := os.ReadFile(globalConfig); err == nil {
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	// Load project config (overrides global)
	projectConfig := filepath.Join(dir, ".chatsim", "config.toml")
	if data, err := os.ReadFile(projectConfig); err == nil {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing project config: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}
	if c.Paths.TestsDir == "" {
		return fmt.Errorf("tests_dir is required")
	}
	if c.Paths.SessionsDir == "" {
		return fmt.Errorf("sessions_dir is required")
	}
	if c.Defaults.MaxTokens <= 0 {
		return fmt.Errorf("defaults.max_tokens must be positive")
	}
	if c.Sessions.Backups < 0 {
		return fmt.Errorf("sessions.backups must not be negative")
	}
	for name, tool := range c.Tools {
		if tool.Command == "" {
			return fmt.Errorf("tools.%s.command is required", name)
		}
	}
	return nil
}

// TestsDir returns the absolute tests directory path.
func (c *Config) TestsDir(baseDir string) string {
	return absPath(baseDir, c.Paths.TestsDir)
}

// SessionsDir returns the absolute sessions directory path.
func (c *Config) SessionsDir(baseDir string) string {
	return absPath(baseDir, c.Paths.SessionsDir)
}

// AgentsDir returns the absolute agents directory path.
func (c *Config) AgentsDir(baseDir string) string {
	return absPath(baseDir, c.Paths.AgentsDir)
}

// SkillsDir returns the absolute skills directory path.
func (c *Config) SkillsDir(baseDir string) string {
	return absPath(baseDir, c.Paths.SkillsDir)
}

// LogsDir returns the absolute logs directory path.
func (c *Config) LogsDir(baseDir string) string {
	return absPath(baseDir, c.Paths.LogsDir)
}

// LogFile returns the absolute log file path, or empty when file logging is
// disabled.
func (c *Config) LogFile(baseDir string) string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(c.LogsDir(baseDir), c.Logging.File)
}

func absPath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
