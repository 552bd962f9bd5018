package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const starterConfig = `# chatsim configuration
version = "1"

[paths]
tests_dir = ".chatsim/tests"
sessions_dir = ".chatsim/sessions"
agents_dir = ".chatsim/agents"
skills_dir = ".chatsim/skills"
logs_dir = ".chatsim/logs"

[defaults]
model = "claude-sonnet-4-20250514"
max_tokens = 4096
temperature = 1.0

[sessions]
backups = 3

# Shell-backed tools for tool_behavior = "execute".
# Tool input fields arrive as CHATSIM_INPUT_<FIELD> environment variables.
#
# [tools.Write]
# command = "tee \"$CHATSIM_INPUT_PATH\""

[logging]
level = "info"
format = "text"
`

const starterTest = `# Example test case: match the last user message and reply.
tests:
  - name: greet
    sequence:
      - match:
          type: contains
          path: messages.-1.content.0.text
          value: hello
        response:
          role: assistant
          content:
            - type: text
              text: Hello! How can I help you today?
        tool_behavior: skip
`

const starterSession = `{
  "model": "claude-sonnet-4-20250514",
  "max_tokens": 4096,
  "messages": [
    {
      "role": "user",
      "content": [
        {"type": "text", "text": "hello there"}
      ]
    }
  ]
}
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a chatsim project",
	Long: `Initialize a new chatsim project in the current directory.

Creates the following structure:

  .chatsim/
  ├── config.toml      # Project configuration
  ├── tests/           # Test configs (starter example included)
  │   └── example.yaml
  ├── sessions/        # Saved sessions (starter example included)
  │   └── example.json
  ├── agents/          # Agent definitions (<name>.md)
  ├── skills/          # Skill definitions (<name>/SKILL.md)
  └── logs/            # Log files (gitignored)

Existing files are never overwritten; use --force to re-create missing
pieces in an already-initialized project.`,
	RunE: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "reinitialize an existing project, preserving existing files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := getWorkDir()
	if err != nil {
		return err
	}

	chatsimDir := filepath.Join(dir, ".chatsim")
	if _, err := os.Stat(chatsimDir); err == nil && !initForce {
		return fmt.Errorf("chatsim project already initialized (found .chatsim directory); use --force to reinitialize")
	}

	dirs := []string{
		filepath.Join(chatsimDir, "tests"),
		filepath.Join(chatsimDir, "sessions"),
		filepath.Join(chatsimDir, "agents"),
		filepath.Join(chatsimDir, "skills"),
		filepath.Join(chatsimDir, "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	created, err := writeIfAbsent(filepath.Join(chatsimDir, "config.toml"), starterConfig)
	if err != nil {
		return err
	}
	if _, err := writeIfAbsent(filepath.Join(chatsimDir, "tests", "example.yaml"), starterTest); err != nil {
		return err
	}
	if _, err := writeIfAbsent(filepath.Join(chatsimDir, "sessions", "example.json"), starterSession); err != nil {
		return err
	}

	if created {
		fmt.Println("Initialized chatsim project in", dir)
	} else {
		fmt.Println("Reinitialized chatsim project in", dir)
	}
	fmt.Println("\nCreated:")
	fmt.Println("  .chatsim/config.toml   - configuration")
	fmt.Println("  .chatsim/tests/        - test configs")
	fmt.Println("  .chatsim/sessions/     - saved sessions")
	fmt.Println("  .chatsim/agents/       - agent definitions")
	fmt.Println("  .chatsim/skills/       - skill definitions")
	fmt.Println("  .chatsim/logs/         - log files")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run the example:   chatsim run greet --session example")
	fmt.Println("  2. List test cases:   chatsim ls")
	fmt.Println("  3. Validate configs:  chatsim validate")

	return nil
}

// writeIfAbsent writes content to path unless the file already exists.
// Returns true when the file was created.
func writeIfAbsent(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
