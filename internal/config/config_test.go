package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != "1" {
		t.Errorf("Version = %s, want 1", cfg.Version)
	}
	if cfg.Paths.TestsDir != ".chatsim/tests" {
		t.Errorf("TestsDir = %s, want .chatsim/tests", cfg.Paths.TestsDir)
	}
	if cfg.Paths.SessionsDir != ".chatsim/sessions" {
		t.Errorf("SessionsDir = %s, want .chatsim/sessions", cfg.Paths.SessionsDir)
	}
	if cfg.Defaults.MaxTokens != 4096 {
		t.Errorf("Defaults.MaxTokens = %d, want 4096", cfg.Defaults.MaxTokens)
	}
	if cfg.Sessions.Backups != 3 {
		t.Errorf("Sessions.Backups = %d, want 3", cfg.Sessions.Backups)
	}
	if cfg.Logging.Level != LogLevelInfo {
		t.Errorf("Logging.Level = %s, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
version = "2"

[paths]
tests_dir = "custom/tests"
sessions_dir = "custom/sessions"

[defaults]
model = "claude-opus-4-20250514"
max_tokens = 2048

[sessions]
backups = 5

[tools.Write]
command = "tee \"$CHATSIM_INPUT_PATH\""

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Version != "2" {
		t.Errorf("Version = %s, want 2", cfg.Version)
	}
	if cfg.Paths.TestsDir != "custom/tests" {
		t.Errorf("TestsDir = %s, want custom/tests", cfg.Paths.TestsDir)
	}
	// Unset fields keep their defaults.
	if cfg.Paths.AgentsDir != ".chatsim/agents" {
		t.Errorf("AgentsDir = %s, want default", cfg.Paths.AgentsDir)
	}
	if cfg.Defaults.Model != "claude-opus-4-20250514" {
		t.Errorf("Defaults.Model = %s, want claude-opus-4-20250514", cfg.Defaults.Model)
	}
	if cfg.Defaults.MaxTokens != 2048 {
		t.Errorf("Defaults.MaxTokens = %d, want 2048", cfg.Defaults.MaxTokens)
	}
	if cfg.Sessions.Backups != 5 {
		t.Errorf("Sessions.Backups = %d, want 5", cfg.Sessions.Backups)
	}
	if cfg.Tools["Write"].Command == "" {
		t.Error("Tools[Write].Command not loaded")
	}
	if cfg.Logging.Level != LogLevelDebug {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("Load should fall back to defaults: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("Version = %s, want default 1", cfg.Version)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("version = [unclosed"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Load should fail on invalid TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"missing version", func(c *Config) { c.Version = "" }, true},
		{"missing tests dir", func(c *Config) { c.Paths.TestsDir = "" }, true},
		{"missing sessions dir", func(c *Config) { c.Paths.SessionsDir = "" }, true},
		{"non-positive max_tokens", func(c *Config) { c.Defaults.MaxTokens = 0 }, true},
		{"negative backups", func(c *Config) { c.Sessions.Backups = -1 }, true},
		{"tool without command", func(c *Config) {
			c.Tools = map[string]ToolConfig{"Write": {}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()

	if got := cfg.TestsDir("/proj"); got != "/proj/.chatsim/tests" {
		t.Errorf("TestsDir = %s, want /proj/.chatsim/tests", got)
	}

	cfg.Paths.SessionsDir = "/abs/sessions"
	if got := cfg.SessionsDir("/proj"); got != "/abs/sessions" {
		t.Errorf("absolute SessionsDir = %s, want /abs/sessions", got)
	}

	if got := cfg.LogFile("/proj"); got != "" {
		t.Errorf("LogFile with no file = %q, want empty", got)
	}
	cfg.Logging.File = "chatsim.log"
	if got := cfg.LogFile("/proj"); got != "/proj/.chatsim/logs/chatsim.log" {
		t.Errorf("LogFile = %s, want /proj/.chatsim/logs/chatsim.log", got)
	}
}
