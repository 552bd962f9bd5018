package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatsim-dev/chatsim/internal/config"
	"github.com/chatsim-dev/chatsim/internal/logging"
	"github.com/chatsim-dev/chatsim/internal/sim"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	verbose bool
	workDir string
)

var rootCmd = &cobra.Command{
	Use:   "chatsim",
	Short: "chatsim - deterministic chat API simulation",
	Long: `chatsim replays scripted conversations against an LLM-style chat API
without calling a real model.

Test cases match incoming sessions with regex and contains rules over
dotted paths and respond with scripted assistant messages, including
multi-turn tool round-trips. Runs are fully deterministic: the same
session and test case always produce the same responses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// When no subcommand is given, list available test cases
		if err := listTests(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "working directory (default: current)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("chatsim {{.Version}}\n")
}

// checkWorkDir ensures we're in a chatsim project directory.
func checkWorkDir() error {
	dir, err := getWorkDir()
	if err != nil {
		return err
	}

	chatsimDir := filepath.Join(dir, ".chatsim")
	if _, err := os.Stat(chatsimDir); os.IsNotExist(err) {
		return fmt.Errorf("not a chatsim project (no .chatsim directory).\n  Run 'chatsim init' to set one up")
	}

	return nil
}

// getWorkDir returns the effective working directory.
func getWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}

// loadProject loads the project config and logger for a command.
// The returned closer is nil unless file logging is configured.
func loadProject() (string, *config.Config, *slog.Logger, io.Closer, error) {
	dir, err := getWorkDir()
	if err != nil {
		return "", nil, nil, nil, err
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return "", nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}

	logger, closer, err := logging.NewFromConfig(cfg, dir)
	if err != nil {
		return "", nil, nil, nil, fmt.Errorf("setting up logging: %w", err)
	}

	return dir, cfg, logger, closer, nil
}

// testFile reports whether a directory entry looks like a test config file.
func testFile(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// loadTests loads and merges every test config file under testsDir.
// Merged configs are validated as a whole, so duplicate test names
// across files are rejected.
func loadTests(testsDir string) (*sim.Config, error) {
	entries, err := os.ReadDir(testsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &sim.Config{}, nil
		}
		return nil, fmt.Errorf("reading tests dir: %w", err)
	}

	merged := &sim.Config{}
	for _, entry := range entries {
		if entry.IsDir() || !testFile(entry.Name()) {
			continue
		}
		cfg, err := sim.LoadConfig(filepath.Join(testsDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		merged.Tests = append(merged.Tests, cfg.Tests...)
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// listTests prints the available test cases, or a hint when outside a
// project.
func listTests() error {
	dir, err := getWorkDir()
	if err != nil {
		return err
	}

	if _, err := os.Stat(filepath.Join(dir, ".chatsim")); os.IsNotExist(err) {
		fmt.Println("Not a chatsim project.")
		fmt.Println()
		fmt.Println("Run 'chatsim init' to set one up.")
		return nil
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tests, err := loadTests(cfg.TestsDir(dir))
	if err != nil {
		return fmt.Errorf("loading tests: %w", err)
	}

	if len(tests.Tests) == 0 {
		fmt.Println("No test cases found.")
		fmt.Println()
		fmt.Printf("Add test configs to %s/ to get started.\n", strings.TrimPrefix(cfg.Paths.TestsDir, "./"))
		return nil
	}

	fmt.Println("Available test cases:")
	fmt.Println()
	for _, tc := range tests.Tests {
		fmt.Printf("  %-24s %d step(s)\n", tc.Name, len(tc.Sequence))
	}
	fmt.Println()
	fmt.Println("Run: chatsim run <test> [--session <name>]")

	return nil
}
